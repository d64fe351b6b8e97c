package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"musiclib/core/tracks"
	"musiclib/db/dbtest"
	"musiclib/repository"
)

func newImporter(t *testing.T) (*Importer, *tracks.Service) {
	t.Helper()
	svc := tracks.NewService(repository.NewGormTrackRepository(dbtest.Open(t)), nil, nil)
	im := New(svc)
	im.debounce = 20 * time.Millisecond
	return im, svc
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestImportFile(t *testing.T) {
	im, _ := newImporter(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "batch.json", `[
		{"url": "https://x/1.mp3", "title": "One", "artist": "A", "playlist": ["Mix"]},
		{"url": "https://x/1.mp3", "title": "Dup"},
		{"url": "https://x/2.mp3"}
	]`)

	res, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if len(res.Created) != 1 || len(res.Failed) != 2 {
		t.Errorf("created %d failed %d, want 1 and 2", len(res.Created), len(res.Failed))
	}
}

func TestReadFileSingleObject(t *testing.T) {
	path := writeFile(t, t.TempDir(), "one.json", ` {"url": "u", "title": "t", "rating": 1}`)
	inputs, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 1 || inputs[0].URL != "u" || inputs[0].Rating == nil || *inputs[0].Rating != 1 {
		t.Errorf("inputs = %+v", inputs)
	}

	bad := writeFile(t, t.TempDir(), "bad.json", `[{"url": `)
	if _, err := ReadFile(bad); err == nil {
		t.Error("expected decode error")
	}
}

func TestImportDirAndWatch(t *testing.T) {
	im, svc := newImporter(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `[{"url": "a", "title": "a"}]`)
	writeFile(t, dir, "notes.txt", `ignored`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := im.ImportDir(ctx, dir); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- im.Watch(ctx, dir) }()
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "b.json", `[{"url": "b", "title": "b"}]`)

	deadline := time.Now().Add(3 * time.Second)
	for {
		page, err := svc.FindAll(ctx, tracks.Query{})
		if err != nil {
			t.Fatal(err)
		}
		if page.Total == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watched file not imported, total = %d", page.Total)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestDebouncerKeepsReplacementTimer(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	calls := make(chan string, 2)
	d.schedule("a.json", func() { calls <- "first" })

	// the first timer fires and blocks on the lock while a newer event
	// replaces it
	d.mu.Lock()
	time.Sleep(50 * time.Millisecond)
	d.delay = time.Hour
	d.scheduleLocked("a.json", func() { calls <- "second" })
	replacement := d.pending["a.json"]
	d.mu.Unlock()

	select {
	case got := <-calls:
		if got != "first" {
			t.Fatalf("callback = %s, want first", got)
		}
	case <-time.After(time.Second):
		t.Fatal("first callback never ran")
	}

	d.mu.Lock()
	got := d.pending["a.json"]
	d.mu.Unlock()
	if got != replacement {
		t.Fatal("replacement timer was dropped from pending")
	}

	stopped := make(chan struct{})
	go func() {
		d.stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop waited for the replacement timer")
	}
	select {
	case c := <-calls:
		t.Errorf("unexpected callback %s after stop", c)
	default:
	}
}
