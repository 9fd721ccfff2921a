package web

import (
	"strings"

	"github.com/robfig/cron/v3"

	appLog "pulse-cli/internal/log"
)

// StartBackups runs job on the cron spec (standard five fields or
// descriptors like @daily) until Close. An empty spec disables it.
func (s *Server) StartBackups(spec string, job func() error) error {
	spec = strings.TrimSpace(spec)
	if spec == "" || job == nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := job(); err != nil {
			appLog.Error("scheduled backup failed", err)
			return
		}
		appLog.Info("scheduled backup written")
	}); err != nil {
		return err
	}
	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = c
	s.mu.Unlock()
	c.Start()
	appLog.Info("backup schedule started", "spec", spec)
	return nil
}
