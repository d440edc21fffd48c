package service

import (
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

type LedgerService struct {
	Config    *Config
	DB        *bun.DB
	Logger    *lecho.Logger
	AuditSink AuditSink
}
