package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

// applyHostEdit 把一条 hosts 子命令套到编辑器上，返回是否改动了槽位。
// 序号从 1 开始，跟 list 打印的一致。
func applyHostEdit(e *service.HostListEditor, op string, args []string, stdin io.Reader) (bool, error) {
	switch op {
	case "list":
		return false, nil
	case "add":
		if len(args) == 0 {
			return false, fmt.Errorf("add needs at least one host")
		}
		for _, h := range args {
			e.Append(strings.TrimSpace(h))
		}
	case "set":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: set <index> <host>")
		}
		i, err := slotIndex(args[0])
		if err != nil {
			return false, err
		}
		if err := e.Edit(i, strings.TrimSpace(args[1])); err != nil {
			return false, err
		}
	case "rm":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: rm <index>")
		}
		i, err := slotIndex(args[0])
		if err != nil {
			return false, err
		}
		if err := e.Remove(i); err != nil {
			return false, err
		}
	case "paste":
		text := strings.Join(args, "\n")
		if text == "-" || text == "" {
			raw, err := io.ReadAll(stdin)
			if err != nil {
				return false, fmt.Errorf("read hosts: %w", err)
			}
			text = string(raw)
		}
		e.Paste(text)
	default:
		return false, fmt.Errorf("unknown hosts action %q (want list, add, set, rm or paste)", op)
	}
	return true, nil
}

func slotIndex(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid index %q", raw)
	}
	return n - 1, nil
}

func hostRows(e *service.HostListEditor) [][]string {
	slots := e.Slots()
	rows := make([][]string, 0, len(slots))
	for i, h := range slots {
		if h == "" {
			h = "-"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), h})
	}
	return rows
}

func hostsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts <id> [list | add <host>... | set <index> <host> | rm <index> | paste <text|->]",
		Short: "Edit the host list of a multiproxy config",
		Long: `Loads the config's host field into slots, applies one edit and saves the joined list.
Paste accepts hosts separated by newlines, commas or semicolons and replaces every slot.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, op, rest := args[0], "list", []string(nil)
			if len(args) > 1 {
				op, rest = args[1], args[2:]
			}

			c, err := loggedInClient()
			if err != nil {
				return err
			}
			configs := c.Configs()
			stored, err := configs.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			editor := service.NewHostListEditor(stored.Host)
			changed, err := applyHostEdit(editor, op, rest, os.Stdin)
			if err != nil {
				return err
			}
			if changed {
				value := editor.Commit()
				if value != stored.Host {
					m, err := configs.Update(cmd.Context(), id, map[string]any{"host": value})
					if err != nil {
						return explain(err)
					}
					printMessage(m.Message)
					editor = service.NewHostListEditor(m.Entity.Host)
				}
			}
			if output != "table" {
				return render(service.SplitHosts(editor.Commit()), nil, nil)
			}
			return render(nil, []string{"#", "HOST"}, hostRows(editor))
		},
	}
}
