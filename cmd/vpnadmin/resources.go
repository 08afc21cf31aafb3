package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/vpnadmin/internal/client"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

// resourceSpec 描述一种实体在命令行里的样子。
type resourceSpec[E, F any] struct {
	use     string
	aliases []string
	short   string
	// filters 是 list 支持的额外过滤参数，原样转发给服务端
	filters  []string
	resource func(*client.Client) client.Resource[E, F]
	header   []string
	row      func(*E) []string
	id       func(*E) string
	extra    []*cobra.Command
}

func init() {
	rootCmd.AddCommand(
		resourceCommand(resourceSpec[repository.Server, service.ServerForm]{
			use:      "servers",
			aliases:  []string{"server"},
			short:    "Manage VPN servers",
			filters:  []string{"country", "premium", "protocols"},
			resource: (*client.Client).Servers,
			header:   []string{"ID", "COUNTRY", "CITY", "IPV4", "ONLINE", "CAPACITY", "LOAD", "PROTOCOLS", "PREMIUM"},
			row: func(s *repository.Server) []string {
				load := service.LoadOf(s)
				return []string{
					s.ID, s.Country, s.City, s.IPv4,
					itoa(s.OnlineUsers), itoa(s.Capacity),
					fmt.Sprintf("%.0f%% %s", load.Utilization*100, load.Band),
					strings.Join(load.Protocols, ","), yesNo(s.Premium),
				}
			},
			id: func(s *repository.Server) string { return s.ID },
		}),
		resourceCommand(resourceSpec[repository.Config, service.ConfigForm]{
			use:      "configs",
			aliases:  []string{"config"},
			short:    "Manage client connection configs",
			filters:  []string{"type", "forPremium", "operator"},
			resource: (*client.Client).Configs,
			header:   []string{"ID", "NAME", "TYPE", "HOSTS", "OPERATOR", "PRIORITY", "DOWNLOADS", "VOTES", "PREMIUM"},
			row: func(c *repository.Config) []string {
				return []string{
					c.ID, c.Name, c.Type, strings.Join(service.SplitHosts(c.Host), ","), c.Operator,
					itoa(c.TestPriority), itoa(c.Downloaded),
					fmt.Sprintf("+%d/-%d", c.VotesPositive, c.VotesNegative), yesNo(c.ForPremium),
				}
			},
			id:    func(c *repository.Config) string { return c.ID },
			extra: []*cobra.Command{hostsCommand()},
		}),
		resourceCommand(resourceSpec[repository.PremiumUser, service.PremiumUserForm]{
			use:      "users",
			aliases:  []string{"premium-users"},
			short:    "Manage premium users",
			filters:  []string{"expired", "suspicious", "email"},
			resource: (*client.Client).PremiumUsers,
			header:   []string{"ID", "EMAIL", "START", "END", "MONTHS", "PAID", "EXPIRED", "SUSPICIOUS"},
			row: func(u *repository.PremiumUser) []string {
				return []string{
					u.ID, u.Email, formatDay(u.DateStart), formatDay(u.DateEnd),
					itoa(u.Months), u.PricePaid, yesNo(u.Expired), yesNo(u.Suspicious),
				}
			},
			id: func(u *repository.PremiumUser) string { return u.ID },
		}),
	)
}

func resourceCommand[E, F any](kind resourceSpec[E, F]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     kind.use,
		Aliases: kind.aliases,
		Short:   kind.short,
	}

	// list
	var query, sortKey, direction string
	filterValues := make(map[string]*string, len(kind.filters))
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List records, optionally filtered and sorted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			params := client.ListParams{Query: query, Sort: sortKey, Direction: direction, Filters: url.Values{}}
			for name, v := range filterValues {
				if *v != "" {
					params.Filters.Set(name, *v)
				}
			}
			items, total, err := kind.resource(c).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(items))
			for i := range items {
				rows = append(rows, kind.row(&items[i]))
			}
			if err := render(items, kind.header, rows); err != nil {
				return err
			}
			if output == "table" && total != len(items) {
				fmt.Fprintf(os.Stderr, "%d of %d shown\n", len(items), total)
			}
			return nil
		},
	}
	listCmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive text filter")
	listCmd.Flags().StringVar(&sortKey, "sort", "", "column to sort by")
	listCmd.Flags().StringVar(&direction, "direction", "", "ascending (default) or descending")
	for _, name := range kind.filters {
		filterValues[name] = listCmd.Flags().String(name, "", "filter by "+name)
	}
	cmd.AddCommand(listCmd)

	// get
	var asForm bool
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			res := kind.resource(c)
			if asForm {
				// 表单形式可以直接改完再 apply -f
				id := args[0]
				if id == "new" {
					id = ""
				}
				form, err := res.Form(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeYAML(os.Stdout, form)
			}
			item, err := res.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "table" {
				return writeYAML(os.Stdout, item)
			}
			return render(item, nil, nil)
		},
	}
	getCmd.Flags().BoolVar(&asForm, "form", false, "print the edit form instead of the record (use \"new\" as id for defaults)")
	cmd.AddCommand(getCmd)

	// apply
	var file, applyID string
	applyCmd := &cobra.Command{
		Use:   "apply -f <file.yaml>",
		Short: "Create a record, or update one when an id is given",
		Long: `Reads a YAML form. With --id, or an "id" key in the file, only the listed fields are
updated and everything else keeps its stored value. Otherwise a record is created and missing
fields take the create defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(file)
			if err != nil {
				return err
			}
			patch, fileID, err := decodePatch[F](raw)
			if err != nil {
				return err
			}
			id := firstNonEmpty(applyID, fileID)

			c, err := loggedInClient()
			if err != nil {
				return err
			}
			res := kind.resource(c)
			var m client.Mutation[E]
			if id == "" {
				m, err = res.Create(cmd.Context(), patch)
			} else {
				m, err = res.Update(cmd.Context(), id, patch)
			}
			if err != nil {
				return explain(err)
			}
			printMessage(fmt.Sprintf("%s (%s)", m.Message, kind.id(&m.Entity)))
			if output != "table" {
				return render(m.Entity, nil, nil)
			}
			return nil
		},
	}
	applyCmd.Flags().StringVarP(&file, "file", "f", "", "YAML form file, - for stdin")
	applyCmd.Flags().StringVar(&applyID, "id", "", "record to update")
	_ = applyCmd.MarkFlagRequired("file")
	cmd.AddCommand(applyCmd)

	// delete
	var assumeYes bool
	deleteCmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete records",
		Long:  "Asks before each delete on a terminal. Without a terminal, --yes is required.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := confirmDelete(os.Stdin, os.Stderr, stdinIsTerminal(), assumeYes, args)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return nil
			}
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			res := kind.resource(c)
			for _, id := range ids {
				d, err := res.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !d.Deleted {
					fmt.Printf("%s: not found\n", id)
					continue
				}
				printMessage(fmt.Sprintf("%s: %s", id, d.Message))
			}
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "delete without asking")
	cmd.AddCommand(deleteCmd)
	cmd.AddCommand(kind.extra...)
	return cmd
}

var errDeleteNeedsYes = errors.New("refusing to delete without confirmation: stdin is not a terminal, pass --yes")

// confirmDelete 返回确认要删除的 id。非交互时必须带 --yes。
func confirmDelete(in io.Reader, out io.Writer, interactive, yes bool, ids []string) ([]string, error) {
	if yes {
		return ids, nil
	}
	if !interactive {
		return nil, errDeleteNeedsYes
	}
	reader := bufio.NewReader(in)
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		fmt.Fprintf(out, "delete %s? [y/N] ", id)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			kept = append(kept, id)
		}
	}
	return kept, nil
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// decodePatch 严格按表单类型解析 YAML（拼错的字段会报错），
// 然后只保留文件里真正出现的键，这样更新时没写的字段保持原值。
func decodePatch[F any](raw []byte) (map[string]any, string, error) {
	var present map[string]any
	if err := yaml.Unmarshal(raw, &present); err != nil {
		return nil, "", fmt.Errorf("parse form: %w", err)
	}
	if len(present) == 0 {
		return nil, "", fmt.Errorf("form file is empty")
	}
	id, err := scalarID(present["id"])
	if err != nil {
		return nil, "", err
	}
	delete(present, "id")

	stripped, err := yaml.Marshal(present)
	if err != nil {
		return nil, "", err
	}
	var form F
	dec := yaml.NewDecoder(bytes.NewReader(stripped))
	dec.KnownFields(true)
	if err := dec.Decode(&form); err != nil {
		return nil, "", fmt.Errorf("parse form: %w", err)
	}

	encoded, err := json.Marshal(form)
	if err != nil {
		return nil, "", err
	}
	var full map[string]any
	if err := json.Unmarshal(encoded, &full); err != nil {
		return nil, "", err
	}
	patch := make(map[string]any, len(present))
	for k := range present {
		if v, ok := full[k]; ok {
			patch[k] = v
		}
	}
	return patch, id, nil
}

// scalarID 接受 YAML 里任何标量写法的 id，比如 id: 12345。
func scalarID(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(id), nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(id), nil
	default:
		return "", fmt.Errorf("parse form: id must be a scalar, got %T", v)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatDay(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}
