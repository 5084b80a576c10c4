package tui

import (
	"fmt"

	"github.com/idilsaglam/todo/internal/ui"
)

// header shows how many items are left. It asks count on every render.
type header struct {
	count func() int
}

func (h header) View(total int) string {
	t := ui.Current()
	rest := h.count()
	return fmt.Sprintf("%s   %s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Accent.Render(fmt.Sprintf("%d left", rest)),
		t.Success.Render(t.SymDone), total-rest,
		t.Pending.Render(t.SymPending), rest,
		t.Muted.Render("Total"), total,
	)
}
