package service

import (
	"context"
	"time"

	"github.com/autotradevip/atv-backend/internal/core/ports"
)

type noopLimiter struct{}

func (noopLimiter) Attempt(context.Context, string) (bool, error) { return true, nil }
func (noopLimiter) Reset(context.Context, string) error           { return nil }

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string, time.Time) error { return nil }
func (noopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type noopRecorder struct{}

func (noopRecorder) Record(ports.AuditEventInput) {}
