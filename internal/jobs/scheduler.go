package jobs

import (
	"fmt"
	"log"

	"MvpxArtistSaas/internal/logger"
	"MvpxArtistSaas/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	auditConfig := NewDefaultAuditConfig()

	// Override audit config from services.yaml if provided
	if s.config != nil {
		if schedule, ok := s.config["audit_schedule"].(string); ok && schedule != "" {
			auditConfig.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			auditConfig.TimeZone = tz
		}
	}

	err := RunStatementAuditScheduler(auditConfig, s.db)
	if err != nil {
		return fmt.Errorf("failed to start statement audit scheduler: %v", err)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Cron service started with statement audit")
	}
	log.Println("Cron service started: statement audit scheduled")

	return nil
}

func (s *CronService) Stop() error {
	log.Println("Cron service stopped.")
	return nil
}
