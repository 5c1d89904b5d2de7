/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"

	commonbackoff "github.com/hive-agents/HIVE/pkg/backoff"
	commonconfig "github.com/hive-agents/HIVE/pkg/config"
	"github.com/hive-agents/HIVE/pkg/database/migrations"
	"github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

var (
	once     sync.Once
	instance *Client
)

// Transient store failures are retried with bounded exponential backoff
// before surfacing: 50ms initial, doubling up to 2s, 5 attempts total.
const (
	retryAttempts        = 5
	retryInitialInterval = 50 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
)

// Client is the persistence gateway. It owns both a sqlx connection for the
// hand-written command paths and a gorm connection for the statistics
// facade. All driver errors leaving this package are classified into the
// orchestrator error taxonomy.
type Client struct {
	db              *sqlx.DB
	gorm            *gorm.DB
	*utils.DBConfig // Embedded database configuration
}

// NewClient creates the singleton gateway instance: it reads the database
// configuration, connects via sqlx and gorm, pings, and applies the embedded
// schema migrations. Returns nil when any step fails; callers treat that as
// store-unreachable at startup.
func NewClient() *Client {
	once.Do(func() {
		cfg := &utils.DBConfig{
			DBName:         commonconfig.GetDBName(),
			Username:       commonconfig.GetDBUser(),
			Password:       commonconfig.GetDBPassword(),
			Host:           commonconfig.GetDBHost(),
			Port:           commonconfig.GetDBPort(),
			SSLMode:        commonconfig.GetDBSslMode(),
			MaxOpenConns:   commonconfig.GetDBMaxOpenConns(),
			MaxIdleConns:   commonconfig.GetDBMaxIdleConns(),
			MaxLifetime:    time.Duration(commonconfig.GetDBMaxLifetimeSecond()) * time.Second,
			MaxIdleTime:    time.Duration(commonconfig.GetDBMaxIdleTimeSecond()) * time.Second,
			ConnectTimeout: commonconfig.GetDBConnectTimeoutSecond(),
			RequestTimeout: time.Duration(commonconfig.GetDBRequestTimeoutSecond()) * time.Second,
		}
		if err := checkParams(cfg); err != nil {
			klog.ErrorS(err, "failed to check db params")
			return
		}
		db, err := utils.Connect(cfg, utils.PgDriver)
		if err != nil {
			klog.Errorf("%s", err.Error())
			return
		}
		if err = db.Ping(); err != nil {
			klog.ErrorS(err, "failed to ping db")
			return
		}
		if err = migrations.Up(db); err != nil {
			klog.ErrorS(err, "failed to apply migrations")
			return
		}
		gormDb, err := utils.ConnectGorm(cfg)
		if err != nil {
			klog.ErrorS(err, "failed to connect gorm")
			return
		}
		instance = &Client{db: db, DBConfig: cfg, gorm: gormDb}
		klog.Infof("init db-client successfully! conn-timeout: %d(s), request-timeout: %d(s)",
			cfg.ConnectTimeout, commonconfig.GetDBRequestTimeoutSecond())
	})
	return instance
}

// Close performs the Close operation.
func (c *Client) Close() {
	err := c.db.Close()
	if err != nil {
		klog.ErrorS(err, "failed to close db connection")
	}
}

// Ping reports store reachability for the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if c.db == nil {
		return commonerrors.NewUnavailable("the client of db has not been initialized")
	}
	if err := c.db.PingContext(ctx); err != nil {
		return commonerrors.NewUnavailable(err.Error())
	}
	return nil
}

// getDB retrieves DB for internal use.
func (c *Client) getDB() (*sqlx.DB, error) {
	if c.db == nil {
		return nil, commonerrors.NewInternalError("The client of db has not been initialized")
	}
	return c.db.Unsafe(), nil
}

// withTx runs fn inside a single transaction, rolling back on error or
// panic. This is the only place a transaction is opened.
func (c *Client) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return utils.ClassifyPqError(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return utils.ClassifyPqError(err)
	}
	if err = tx.Commit(); err != nil {
		return utils.ClassifyPqError(err)
	}
	return nil
}

// execWithRetry wraps withTx with the transient-failure retry budget.
// Conflicts, not-found and validation errors abort immediately.
func (c *Client) execWithRetry(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return commonbackoff.RetryN(func() error {
		err := c.withTx(ctx, fn)
		if err != nil && !commonerrors.IsTransientBackend(err) {
			return commonbackoff.Permanent(err)
		}
		return err
	}, retryAttempts, retryInitialInterval, retryMaxInterval)
}

// checkParams checks Params and returns the result.
func checkParams(cfg *utils.DBConfig) error {
	var errs []error
	if cfg.DBName == "" {
		errs = append(errs, fmt.Errorf("dbname not found"))
	}
	if cfg.Username == "" {
		errs = append(errs, fmt.Errorf("username not found"))
	}
	if cfg.Password == "" {
		errs = append(errs, fmt.Errorf("password not found"))
	}
	if cfg.Host == "" {
		errs = append(errs, fmt.Errorf("host not found"))
	}
	if cfg.SSLMode == "" {
		errs = append(errs, fmt.Errorf("ssl_mode not found"))
	}
	if cfg.Port == 0 {
		errs = append(errs, fmt.Errorf("port not found"))
	}
	return utilerrors.NewAggregate(errs)
}
