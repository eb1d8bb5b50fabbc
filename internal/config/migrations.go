package config

import (
	"fmt"

	"github.com/adiepenbrock/nerdpaper/internal/migrate"
)

func init() {
	migrate.Config.Register(migrate.Migration{
		Version:     2,
		Description: "move flat font path into [font], drop modifiers",
		Upgrade:     upgradeFlatLayout,
	})
}

// upgradeFlatLayout converts the first release's layout, where font was a
// bare path and shapes were chosen with a modifiers list:
//
//	font: ./fonts/icons.ttf
//	modifiers: [Square, Colorized]
//
// Badges are always square and colorized now, so modifiers has no
// replacement.
func upgradeFlatLayout(doc migrate.Document) error {
	switch f := doc["font"].(type) {
	case nil:
	case string:
		doc["font"] = map[string]any{"path": f}
	case map[string]any:
	default:
		return fmt.Errorf("font: unexpected %T", f)
	}
	delete(doc, "modifiers")
	return nil
}
