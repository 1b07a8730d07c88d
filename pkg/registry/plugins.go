package registry

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"

	"github.com/dukex/areaflow/pkg/protocol"
)

// ReactionPlugin is the symbol a reaction plugin exports under "Reaction":
// the registration triple for one out-of-tree handler.
type ReactionPlugin interface {
	Service() string
	Action() string
	Handler() protocol.ReactionHandler
}

// LoadReactionPlugins opens every .so under pluginsPath/reactions and
// registers the handler each one exports.
func (r *Registry) LoadReactionPlugins(pluginsPath string) error {
	rootPath := pluginsPath + "/reactions"

	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return nil
	}

	root := os.DirFS(rootPath)

	pluginPaths, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return err
	}

	l := r.logger.With(slog.String("path", rootPath))
	l.Info("Loading reaction plugins")

	for _, p := range pluginPaths {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		symbol, err := plg.Lookup("Reaction")
		if err != nil {
			return fmt.Errorf("plugin %s has no Reaction symbol: %w", p, err)
		}

		reaction, ok := symbol.(ReactionPlugin)
		if !ok {
			return fmt.Errorf("plugin %s does not implement ReactionPlugin", p)
		}

		r.RegisterReaction(reaction.Service(), reaction.Action(), reaction.Handler())
		l.Info("Loaded reaction plugin", slog.String("plugin", p))
	}

	return nil
}
