package cmd

import (
	"github.com/pseudomuto/migen/pkg/config"
	"github.com/pseudomuto/migen/pkg/project"
	"go.uber.org/fx"
)

var Module = fx.Module("cli",
	fx.Provide(
		func(cfg *config.Config) *project.Project { return project.New(".", cfg) },
		fx.Annotate(generate, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(initCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(rehash, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(status, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
