package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"trek/internal/config"
	"trek/internal/model"
	"trek/internal/store"
	"trek/internal/transfer"
	"trek/internal/tui"
	"trek/internal/ui"
	"trek/internal/view"
)

// Options wire the runner to its collaborators. Tests point the writers at
// buffers and the clock at a fixed time.
type Options struct {
	Store  *store.Store
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Now    func() time.Time
	Yes    bool // answer confirmation prompts with yes
}

func (o *Options) fill() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	opt.fill()
	if len(args) == 0 {
		PrintHelp(opt.Stdout)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Stdout)
		return 0

	case "ls":
		return doList(a, opt)

	case "add":
		return doAdd(a, opt)

	case "show":
		return doShow(a, opt)

	case "edit":
		return doEdit(a, opt)

	case "done":
		return doDone(a, opt)

	case "rm":
		return doRemove(a, opt)

	case "stats":
		return doStats(opt)

	case "export":
		return doExport(a, opt)

	case "import":
		return doImport(a, opt)

	case "tui":
		if err := tui.Run(opt.Store, opt.Config); err != nil {
			ui.Fail(opt.Stderr, "tui: "+err.Error())
			return 1
		}
		return 0
	}

	ui.Fail(opt.Stderr, "unknown subcommand: "+cmd)
	fmt.Fprintln(opt.Stderr)
	PrintHelp(opt.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `trek - track learning journeys from the terminal

Usage:
  trek <subcommand> [args]

Subcommands:
  add [flags] <title...>   Add a new item (title can be multiple words)
  ls [-s status] [-q text] [-group]
                           List items, optionally filtered and searched
  show <id>                Show every field of one item
  edit <id> [flags]        Change only the fields named by flags
  done <id>                Toggle the item between completed and the
                           first configured status
  rm <id>                  Remove the item with that id
  stats                    Per-status counts and completion
  export [-o path]         Write all items to a dated JSON backup
  import [-yes] <path>     Replace all items with a JSON backup
  tui                      Interactive list

Flags for add and edit:
  -title (edit only), -status, -start, -target, -progress,
  -category, -dest, -res, -notes

Examples:
  trek add -status ongoing -progress 40 "Distributed Systems"
  trek ls -s ongoing -q systems
  trek edit 1700000000000 -progress 80
  trek done 1700000000000
  trek export -o backup.json
`)
}

// -------------- subcommand impls ----------------

func doList(args []string, opt Options) int {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(opt.Stderr)
	status := fs.String("s", view.StatusAll, "only items with this status")
	query := fs.String("q", "", "only items whose searchable fields contain this text")
	group := fs.Bool("group", false, "group output by status")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := opt.Config
	items := opt.Store.List()
	shown := view.Filter(items, *status, *query, cfg.Search.Fields)
	st := view.Stats(items, cfg.Store.CompletedStatus)

	var lines []string
	lines = append(lines, headerLine(cfg, st))
	lines = append(lines, ui.C(ui.Current().Muted, ui.Bar(st.CompletionPercent, 28)))
	lines = append(lines, "")
	if *group {
		lines = append(lines, groupLines(shown, cfg)...)
	} else {
		lines = append(lines, flatLines(shown, cfg)...)
	}
	if *status != view.StatusAll || *query != "" {
		lines = append(lines, "")
		lines = append(lines, ui.C(ui.Current().Muted,
			fmt.Sprintf("showing %d of %d items", len(shown), len(items))))
	}
	ui.Panel(opt.Stdout, lines)
	return 0
}

func doAdd(args []string, opt Options) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(opt.Stderr)
	status := fs.String("status", "", "initial status")
	start := fs.String("start", "", "start date")
	target := fs.String("target", "", "target date")
	progress := fs.Int("progress", 0, "progress percent, 0 to 100")
	category := fs.String("category", "", "category label")
	dest := fs.String("dest", "", "destinations")
	res := fs.String("res", "", "resources")
	notes := fs.String("notes", "", "notes")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	title := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(title) == "" {
		ui.Fail(opt.Stderr, "usage: trek add [flags] <title...>")
		return 2
	}

	p := model.Payload{
		Title:        title,
		Status:       *status,
		StartDate:    *start,
		TargetDate:   *target,
		Category:     *category,
		Destinations: *dest,
		Resources:    *res,
		Notes:        *notes,
	}
	if visited(fs)["progress"] {
		p.Progress = progress
	}

	it, err := opt.Store.Create(p)
	if err != nil {
		return failMutation(opt, "add", err)
	}
	ui.OK(opt.Stdout, fmt.Sprintf("added %d", it.ID))
	return 0
}

func doShow(args []string, opt Options) int {
	if len(args) != 1 {
		ui.Fail(opt.Stderr, "usage: trek show <id>")
		return 2
	}
	id, err := parseID(args[0])
	if err != nil {
		ui.Fail(opt.Stderr, "show: not an id: "+args[0])
		return 2
	}
	it, err := opt.Store.Get(id)
	if err != nil {
		return failMutation(opt, "show", err)
	}

	cfg := opt.Config
	t := ui.Current()
	color := ui.StatusColor(it.Status, cfg.Store.CompletedStatus, cfg.Store.Statuses)

	lines := []string{
		ui.C(t.Title, it.Title),
		ui.C(color, ui.StatusBox(it.Status, cfg.Store.CompletedStatus)+" "+it.Status),
	}
	if it.Progress != nil {
		lines = append(lines, ui.C(t.Muted, ui.Bar(*it.Progress, 20)))
	}
	if fields := fieldLines(it); len(fields) > 0 {
		lines = append(lines, "")
		lines = append(lines, fields...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, fmt.Sprintf("id %d, created %s",
		it.ID, it.CreatedAt.Format("2006-01-02 15:04"))))
	ui.Panel(opt.Stdout, lines)
	return 0
}

func doEdit(args []string, opt Options) int {
	if len(args) == 0 {
		ui.Fail(opt.Stderr, "usage: trek edit <id> [flags]")
		return 2
	}
	id, err := parseID(args[0])
	if err != nil {
		ui.Fail(opt.Stderr, "edit: not an id: "+args[0])
		return 2
	}

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(opt.Stderr)
	title := fs.String("title", "", "new title")
	status := fs.String("status", "", "new status")
	start := fs.String("start", "", "new start date")
	target := fs.String("target", "", "new target date")
	progress := fs.Int("progress", 0, "new progress percent")
	category := fs.String("category", "", "new category")
	dest := fs.String("dest", "", "new destinations")
	res := fs.String("res", "", "new resources")
	notes := fs.String("notes", "", "new notes")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	// Only flags actually given end up in the patch; everything else keeps
	// its stored value.
	seen := visited(fs)
	var p model.Patch
	if seen["title"] {
		p.Title = title
	}
	if seen["status"] {
		p.Status = status
	}
	if seen["start"] {
		p.StartDate = start
	}
	if seen["target"] {
		p.TargetDate = target
	}
	if seen["progress"] {
		p.Progress = progress
	}
	if seen["category"] {
		p.Category = category
	}
	if seen["dest"] {
		p.Destinations = dest
	}
	if seen["res"] {
		p.Resources = res
	}
	if seen["notes"] {
		p.Notes = notes
	}
	if p.IsZero() {
		ui.Fail(opt.Stderr, "edit: nothing to change, give at least one flag")
		return 2
	}

	if _, err := opt.Store.Update(id, p); err != nil {
		return failMutation(opt, "edit", err)
	}
	ui.OK(opt.Stdout, "updated")
	return 0
}

func doDone(args []string, opt Options) int {
	if len(args) != 1 {
		ui.Fail(opt.Stderr, "usage: trek done <id>")
		return 2
	}
	id, err := parseID(args[0])
	if err != nil {
		ui.Fail(opt.Stderr, "done: not an id: "+args[0])
		return 2
	}

	cfg := opt.Config
	it, err := opt.Store.Get(id)
	if err != nil {
		return failMutation(opt, "done", err)
	}
	next := cfg.Store.CompletedStatus
	if it.Status == next && len(cfg.Store.Statuses) > 0 {
		next = cfg.Store.Statuses[0]
	}
	if _, err := opt.Store.Update(id, model.Patch{Status: &next}); err != nil {
		return failMutation(opt, "done", err)
	}
	ui.OK(opt.Stdout, "marked "+next)
	return 0
}

func doRemove(args []string, opt Options) int {
	if len(args) != 1 {
		ui.Fail(opt.Stderr, "usage: trek rm <id>")
		return 2
	}
	id, err := parseID(args[0])
	if err != nil {
		ui.Fail(opt.Stderr, "rm: not an id: "+args[0])
		return 2
	}
	if err := opt.Store.Delete(id); err != nil {
		return failMutation(opt, "rm", err)
	}
	ui.OK(opt.Stdout, "removed")
	return 0
}

func doStats(opt Options) int {
	cfg := opt.Config
	st := view.Stats(opt.Store.List(), cfg.Store.CompletedStatus)
	t := ui.Current()

	lines := []string{headerLine(cfg, st), ""}
	for _, status := range statusOrder(st, cfg) {
		color := ui.StatusColor(status, cfg.Store.CompletedStatus, cfg.Store.Statuses)
		lines = append(lines, fmt.Sprintf("%s %d", ui.C(color, status), st.ByStatus[status]))
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, ui.Bar(st.CompletionPercent, 28)))
	ui.Panel(opt.Stdout, lines)
	return 0
}

func doExport(args []string, opt Options) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(opt.Stderr)
	out := fs.String("o", "", "output path (default: dated backup name in the current directory)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	items := opt.Store.List()
	doc, err := transfer.Export(items, opt.Config.AppName, opt.Now())
	if err != nil {
		ui.Fail(opt.Stderr, "export: "+err.Error())
		return 1
	}
	path := *out
	if path == "" {
		path = doc.Filename
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		ui.Fail(opt.Stderr, "export: "+err.Error())
		return 1
	}
	ui.OK(opt.Stdout, fmt.Sprintf("exported %d items to %s", len(items), path))
	return 0
}

func doImport(args []string, opt Options) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(opt.Stderr)
	yes := fs.Bool("yes", false, "replace without asking")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		ui.Fail(opt.Stderr, "usage: trek import [-yes] <path>")
		return 2
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		ui.Fail(opt.Stderr, "import: "+err.Error())
		return 1
	}
	pending, err := transfer.ParseImport(data)
	if err != nil {
		ui.Fail(opt.Stderr, "import: "+err.Error())
		if errors.Is(err, transfer.ErrInvalid) {
			return 2
		}
		return 1
	}

	// Import replaces everything, so it never proceeds on silence.
	if !opt.Yes && !*yes {
		fmt.Fprintf(opt.Stdout, "replace %d existing items with %d imported ones? [y/N] ",
			opt.Store.Len(), pending.Count())
		if !confirmed(opt.Stdin) {
			fmt.Fprintln(opt.Stdout, "import cancelled")
			return 0
		}
	}

	pending.Apply(opt.Store)
	ui.OK(opt.Stdout, fmt.Sprintf("imported %d items", pending.Count()))
	return 0
}

// -------------- shared helpers --------------

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func visited(fs *flag.FlagSet) map[string]bool {
	seen := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	return seen
}

func confirmed(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// failMutation prints a store error and maps it to an exit code: bad input
// and missing ids count as usage errors.
func failMutation(opt Options, cmd string, err error) int {
	ui.Fail(opt.Stderr, cmd+": "+err.Error())
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		return 2
	}
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(opt.Stderr, ui.C(ui.Current().Muted, "Hint: run `trek ls` to see ids"))
		return 2
	}
	return 1
}

// -------------- rendering helpers --------------

func headerLine(cfg *config.Config, st view.Statistics) string {
	t := ui.Current()
	parts := []string{ui.C(t.Title, strings.ToUpper(cfg.AppName[:1])+cfg.AppName[1:])}
	for _, status := range cfg.Store.Statuses {
		color := ui.StatusColor(status, cfg.Store.CompletedStatus, cfg.Store.Statuses)
		parts = append(parts, fmt.Sprintf("%s %d", ui.C(color, status), st.ByStatus[status]))
	}
	parts = append(parts, fmt.Sprintf("%s %d", ui.C(t.Accent, "Total"), st.Total))
	return strings.Join(parts, "  ")
}

// statusOrder lists configured statuses first, then any strays that came
// in through imports, so the stats sum always matches the total.
func statusOrder(st view.Statistics, cfg *config.Config) []string {
	order := append([]string{}, cfg.Store.Statuses...)
	known := map[string]bool{}
	for _, s := range order {
		known[s] = true
	}
	for s := range st.ByStatus {
		if !known[s] {
			order = append(order, s)
		}
	}
	return order
}

func flatLines(items []model.Item, cfg *config.Config) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		color := ui.StatusColor(it.Status, cfg.Store.CompletedStatus, cfg.Store.Statuses)
		box := ui.StatusBox(it.Status, cfg.Store.CompletedStatus)
		title := it.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		line := fmt.Sprintf("%s %s %s %s",
			ui.C(t.Muted, fmt.Sprintf("%13d", it.ID)),
			ui.C(color, box),
			title,
			ui.C(color, "("+it.Status+")"))
		if it.Progress != nil {
			line += ui.C(t.Muted, fmt.Sprintf(" %d%%", *it.Progress))
		}
		out = append(out, line)
	}
	return out
}

func groupLines(items []model.Item, cfg *config.Config) []string {
	t := ui.Current()
	var lines []string
	for i, status := range statusOrder(view.Stats(items, cfg.Store.CompletedStatus), cfg) {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, ui.C(t.Accent, status))
		subset := view.Filter(items, status, "", nil)
		if len(subset) == 0 {
			lines = append(lines, ui.C(t.Muted, "(none)"))
			continue
		}
		lines = append(lines, flatLines(subset, cfg)...)
	}
	return lines
}

func fieldLines(it model.Item) []string {
	t := ui.Current()
	label := func(name, value string) string {
		return ui.C(t.Muted, name+": ") + value
	}
	var lines []string
	if it.StartDate != "" {
		lines = append(lines, label("start", it.StartDate))
	}
	if it.TargetDate != "" {
		lines = append(lines, label("target", it.TargetDate))
	}
	if it.Category != "" {
		lines = append(lines, label("category", it.Category))
	}
	if it.Destinations != "" {
		lines = append(lines, label("destinations", it.Destinations))
	}
	if it.Resources != "" {
		lines = append(lines, label("resources", it.Resources))
	}
	if it.Notes != "" {
		lines = append(lines, label("notes", it.Notes))
	}
	return lines
}
