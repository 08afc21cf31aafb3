package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/vpnadmin/internal/client"
)

// render 按 --output 输出：table 用 header/rows，yaml 和 json 直接序列化 value。
func render(value any, header []string, rows [][]string) error {
	switch output {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "table", "":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, strings.Join(header, "\t"))
		for _, r := range rows {
			fmt.Fprintln(w, strings.Join(r, "\t"))
		}
		return w.Flush()
	}
	return fmt.Errorf("unknown output format %q", output)
}

// renderFields prints a single record as KEY: value lines in table mode.
func renderFields(value any, fields [][2]string) error {
	if output != "table" && output != "" {
		return render(value, nil, nil)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(w, "%s:\t%s\n", f[0], f[1])
	}
	return w.Flush()
}

func printMessage(msg string) {
	if msg != "" && (output == "table" || output == "") {
		fmt.Println(msg)
	}
}

// explain 把校验失败的字段逐行列出来。
func explain(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		return fmt.Errorf("%s\n%s", apiErr.Error(), strings.TrimRight(apiErr.FieldSummary(), "\n"))
	}
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func itoa[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}
