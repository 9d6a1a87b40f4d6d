package game

import (
	"math/rand"

	"github.com/pthm-cable/echothief/components"
	"github.com/pthm-cable/echothief/level"
	"github.com/pthm-cable/echothief/systems"
)

// spawnLevel creates ambient sources, the player and the guards.
func (g *Game) spawnLevel() {
	for _, src := range g.lvl.Ambient {
		g.spawnAmbient(src)
	}
	if g.lvl.HasPlayer() {
		g.spawnPlayer(g.lvl.Player)
	}
	for _, spawn := range g.lvl.Guards {
		g.spawnGuard(spawn)
	}

	g.logger.Info("level spawned",
		"level", g.lvl.Name,
		"guards", len(g.guards),
		"ambient", len(g.lvl.Ambient),
		"player", g.hasPlayer,
	)
}

func (g *Game) spawnAmbient(src level.AmbientSource) {
	cfg := g.cfg.Ambient

	emitter := components.AmbientEmitter{
		Profile:  cfg.Profile,
		Interval: cfg.Interval,
		Variance: cfg.Variance,
	}
	if src.Interval > 0 {
		emitter.Interval = src.Interval
	}
	systems.InitAmbient(&emitter, g.rng)

	t := components.Transform{Pos: src.Position.Vec()}
	agent := components.Agent{ID: g.newID(), Name: src.Name, Kind: components.KindAmbient}
	g.ambientMapper.NewEntity(&t, &agent, &emitter)
}

func (g *Game) spawnPlayer(spawn level.PlayerSpawn) {
	cfg := g.cfg.Player

	script := components.PlayerScript{
		Route:            level.Vecs(spawn.Route),
		Speed:            cfg.Speed,
		Footstep:         cfg.Footstep,
		FootstepInterval: cfg.FootstepInterval,
		Throw:            cfg.Throw,
	}
	if spawn.Speed > 0 {
		script.Speed = spawn.Speed
	}
	for _, th := range spawn.Throws {
		script.Throws = append(script.Throws, components.Throw{At: th.At, Target: th.Target.Vec()})
	}

	start := spawn.Start.Vec()
	t := components.Transform{Pos: start}
	agent := components.Agent{ID: g.newID(), Name: "player", Kind: components.KindPlayer}
	g.playerMapper.NewEntity(&t, &agent, &script)

	g.player = agent.ID
	g.playerPos = start
	g.hasPlayer = true
	g.playerNav = systems.NewGridNavigator(g.planner, start)
	g.playerNav.SetSpeed(script.Speed)
	g.playerNav.SetDestination(script.Route[0])
}

func (g *Game) spawnGuard(spawn level.GuardSpawn) {
	pos := spawn.Position.Vec()
	id := g.newID()
	nav := systems.NewGridNavigator(g.planner, pos)

	guard := systems.NewGuard(systems.GuardSpec{
		ID:       id,
		Name:     spawn.Name,
		Position: pos,
		Config:   g.guardConfig(),
		Hearing: systems.HearingConfig{
			BaseRange: g.cfg.Hearing.BaseRange,
			MaxError:  g.cfg.Hearing.MaxError,
		},
		Route: spawn.PatrolRoute(g.cfg.Patrol.Mode, g.cfg.Patrol.Dwell),
	}, systems.GuardDeps{
		Bus:          g.bus,
		Nav:          nav,
		Reporter:     g,
		OnTransition: g.onGuardTransition,
		OnHeard:      g.onNoiseHeard,
		// Per-guard stream so perception does not depend on update order
		Rng:    rand.New(rand.NewSource(g.rng.Int63())),
		Logger: g.logger,
	})

	g.guards[id] = guard
	g.navs[id] = nav

	t := components.Transform{Pos: pos}
	agent := components.Agent{ID: id, Name: spawn.Name, Kind: components.KindGuard}
	g.guardMapper.NewEntity(&t, &agent)
}

// guardConfig converts the config section into guard tuning.
func (g *Game) guardConfig() systems.GuardConfig {
	c := g.cfg.Guard
	return systems.GuardConfig{
		SuspiciousTimeout: c.SuspiciousTimeout,
		AlertedTimeout:    c.AlertedTimeout,
		CatchDistance:     c.CatchDistance,
		ChaseDistance:     g.cfg.Derived.ChaseDistance,
		PatrolSpeed:       c.PatrolSpeed,
		SuspiciousSpeed:   c.SuspiciousSpeed,
		AlertedSpeed:      c.AlertedSpeed,
		ChaseSpeed:        c.ChaseSpeed,
		TurnRate:          c.TurnRate,
		ArrivalTolerance:  g.cfg.Patrol.ArrivalTolerance,
		Footstep:          c.Footstep,
		FootstepInterval:  c.FootstepInterval,
		FootstepMinSpeed:  c.FootstepMinSpeed,
	}
}
