package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"musiclib/config"
	"musiclib/logger"
	"musiclib/model"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models is every table owned by the library, in migration order.
var Models = []interface{}{
	&model.Track{},
	&model.TrackPlaylist{},
	&model.UserPlaylist{},
	&model.User{},
}

// MySQLDSN builds the DSN from config. ClientFoundRows makes RowsAffected
// count matched rows, so an update that changes nothing still reports a hit.
func MySQLDSN(cfg *config.Config) string {
	mc := mysqldriver.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// SQLiteDriverName is the database/sql driver used for DB_DRIVER=sqlite. It
// replaces SQLite's ASCII-only lower() with a Unicode-aware one so that
// LOWER(col) LIKE searches fold "ÉMILE" like MySQL does.
const SQLiteDriverName = "sqlite3_musiclib"

var registerSQLite sync.Once

func sqliteDialector(path string) gorm.Dialector {
	registerSQLite.Do(func() {
		sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", strings.ToLower, true)
			},
		})
	})
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: path})
}

// Open 建立 GORM 数据库连接
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqliteDialector(cfg.DBPath)
	case "mysql", "":
		dialector = mysql.Open(MySQLDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(cfg.DBLogLevel),
		TranslateError: true,
		// 禁用外键约束
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// a single writer avoids "database is locked" under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Info("Database connected", logger.String("driver", gdb.Dialector.Name()))
	return gdb, nil
}

// Close closes the underlying connection pool.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database answers.
func Ping(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// binaryCollations makes group keys compare and sort case-sensitively on
// MySQL, matching SQLite's default BINARY collation.
var binaryCollations = []string{
	"ALTER TABLE tracks MODIFY artist VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin",
	"ALTER TABLE track_playlists MODIFY name VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
}

// AutoMigrate 自动迁移所有模型
func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("GORM database not initialized")
	}
	if err := gdb.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	if gdb.Dialector.Name() == "mysql" {
		for _, stmt := range binaryCollations {
			if err := gdb.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set collation: %w", err)
			}
		}
	}
	logger.Info("Models migrated successfully", logger.Int("tables", len(Models)))
	return nil
}

// zapWriter routes gorm's log lines through the application logger.
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	logger.Info("[GORM] " + fmt.Sprintf(format, args...))
}

func newGormLogger(level string) gormlogger.Interface {
	var lvl gormlogger.LogLevel
	switch strings.ToLower(level) {
	case "silent":
		lvl = gormlogger.Silent
	case "error":
		lvl = gormlogger.Error
	case "info":
		lvl = gormlogger.Info
	default:
		lvl = gormlogger.Warn
	}
	return gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}
