// Package process 承载核心服务的后台周期任务。
package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crewhub/crewhub/app/core"
	v1 "github.com/crewhub/crewhub/app/logic/v1"
	"github.com/crewhub/crewhub/pkg/safe"
)

const (
	defaultSweepSpec     = "@every 1m"
	defaultStuckDuration = time.Minute * 5
)

type Process struct {
	core *core.Core
	cron *cron.Cron
}

func NewProcess(core *core.Core) *Process {
	return &Process{
		core: core,
		cron: cron.New(),
	}
}

// Start 注册并启动全部后台任务，注册失败视为配置错误直接 panic
func (p *Process) Start() {
	spec := p.core.Cfg().Request.AcceptingSweepInterval
	if spec == "" {
		spec = defaultSweepSpec
	}

	stuckFor := defaultStuckDuration
	if seconds := p.core.Cfg().Request.AcceptingStuckSeconds; seconds > 0 {
		stuckFor = time.Second * time.Duration(seconds)
	}

	maintenance := v1.NewRequestMaintenance(p.core)
	if _, err := p.cron.AddFunc(spec, func() {
		safe.Run(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := maintenance.SweepAcceptingRequests(ctx, stuckFor); err != nil {
				slog.Error("Accepting sweep failed", slog.Any("error", err))
			}
		})
	}); err != nil {
		panic(err)
	}

	p.cron.Start()
}

func (p *Process) Stop() {
	<-p.cron.Stop().Done()
}
