package sourcing

import (
	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

// NewRouter registers every sourcing strategy against its catalog kind.
func NewRouter(p provider.Provider, target int) *catalog.Router {
	r := catalog.NewRouter()
	item := NewItem(p)
	all := NewAllBased(p)

	r.Handle(catalog.KindRec, NewTopPicks(p))
	r.Handle(catalog.KindTheme, NewTheme(p, target))
	r.Handle(catalog.KindItem, item)
	r.Handle(catalog.KindLoved, item)
	r.Handle(catalog.KindWatched, item)
	r.Handle(catalog.KindCreators, NewCreators(p))
	r.Handle(catalog.KindAllLoved, all)
	r.Handle(catalog.KindLikedAll, all)
	return r
}
