package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"

	"github.com/dukex/areaflow/pkg/protocol"
)

// LoadConnectors opens every .so under pluginsPath/connectors and builds the
// connector each one provides.
func LoadConnectors(logger *slog.Logger, pluginsPath string, automations protocol.AutomationSource) ([]protocol.Connector, error) {
	rootPath := pluginsPath + "/connectors"

	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return nil, nil
	}

	root := os.DirFS(rootPath)

	pluginPaths, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With("module", "connectors", "path", rootPath)
	l.Info("Loading connector plugins")

	connectors := make([]protocol.Connector, 0, len(pluginPaths))

	for _, p := range pluginPaths {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		symbol, err := plg.Lookup("Connector")
		if err != nil {
			return nil, fmt.Errorf("plugin %s has no Connector symbol: %w", p, err)
		}

		provider, ok := symbol.(protocol.ConnectorProvider)
		if !ok {
			return nil, fmt.Errorf("plugin %s does not implement ConnectorProvider", p)
		}

		connector, err := provider.New(logger, automations)
		if err != nil {
			return nil, fmt.Errorf("failed to build connector from plugin %s: %w", p, err)
		}

		connectors = append(connectors, connector)
		l.Info("Loaded connector plugin", "plugin", p, "connector", connector.Name())
	}

	return connectors, nil
}
