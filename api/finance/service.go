package finance

import (
	"database/sql"

	"MvpxArtistSaas/internal/serviceiface"
)

type FinanceService struct {
	config map[string]interface{}
	db     *sql.DB
}

func NewFinanceService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	return &FinanceService{config: cfg, db: db}
}

func (s *FinanceService) Name() string {
	return "finance"
}

func (s *FinanceService) Start() error {
	go StartFinanceService(s.db)
	return nil
}

func (s *FinanceService) Stop() error {
	// Implement stop logic if needed
	return nil
}
