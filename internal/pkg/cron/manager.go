package cron

import (
	"context"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

// Entry 一个定时任务
type Entry struct {
	Name string
	Spec string
	Job  cron.Job
}

type Manager struct {
	engine  *cron.Cron
	entries []Entry
}

func NewCronManager(entries ...Entry) *Manager {
	return &Manager{
		engine:  cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		entries: entries,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	for _, e := range s.entries {
		if _, err := s.engine.AddJob(e.Spec, e.Job); err != nil {
			return err
		}
		log.Info("cron job registered", "name", e.Name, "spec", e.Spec)
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}

// Run 启动后阻塞到 ctx 结束
func (s *Manager) Run(ctx context.Context) error {
	if err := InitCron(s); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}
