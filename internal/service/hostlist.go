package service

import (
	"fmt"
	"regexp"
	"strings"
)

// HostSeparator joins multiproxy host entries.
const HostSeparator = ";"

var pasteSeparators = regexp.MustCompile(`[\n,;]+`)

// SplitHosts splits a stored host string on ";" and drops empty segments.
func SplitHosts(value string) []string {
	parts := strings.Split(value, HostSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// JoinHosts joins the non-blank entries with ";". An empty list yields "".
func JoinHosts(hosts []string) string {
	kept := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if strings.TrimSpace(h) == "" {
			continue
		}
		kept = append(kept, h)
	}
	return strings.Join(kept, HostSeparator)
}

// ParsePastedHosts splits pasted text on newlines, commas and semicolons, trimming each entry.
func ParsePastedHosts(text string) []string {
	parts := pasteSeparators.Split(strings.ReplaceAll(text, "\r", ""), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HostListEditor 是 multiproxy host 字段的编辑器：若干输入槽位，提交时用 ; 拼接。
// 列表为空时总会保留一个空占位槽。
type HostListEditor struct {
	slots []string
}

// NewHostListEditor loads the editor from a stored host string.
func NewHostListEditor(value string) *HostListEditor {
	e := &HostListEditor{slots: SplitHosts(value)}
	if len(e.slots) == 0 {
		e.slots = []string{""}
	}
	return e
}

// Slots returns a copy of the current slots, blanks included.
func (e *HostListEditor) Slots() []string {
	return append([]string(nil), e.slots...)
}

// Count is the number of non-blank entries.
func (e *HostListEditor) Count() int {
	return len(SplitHosts(strings.Join(e.slots, HostSeparator)))
}

// Add appends a blank slot.
func (e *HostListEditor) Add() {
	e.slots = append(e.slots, "")
}

// Append 把 value 放进末尾的空槽位，没有空槽位时新开一个。
func (e *HostListEditor) Append(value string) {
	if last := len(e.slots) - 1; last >= 0 && strings.TrimSpace(e.slots[last]) == "" {
		e.slots[last] = value
		return
	}
	e.slots = append(e.slots, value)
}

// Edit replaces the slot at i. Blanking the last entry leaves a single placeholder.
func (e *HostListEditor) Edit(i int, value string) error {
	if i < 0 || i >= len(e.slots) {
		return fmt.Errorf("%w: host slot %d out of range", ErrInvalidInput, i)
	}
	e.slots[i] = value
	e.keepPlaceholder()
	return nil
}

// Remove deletes the slot at i.
func (e *HostListEditor) Remove(i int) error {
	if i < 0 || i >= len(e.slots) {
		return fmt.Errorf("%w: host slot %d out of range", ErrInvalidInput, i)
	}
	e.slots = append(e.slots[:i], e.slots[i+1:]...)
	e.keepPlaceholder()
	return nil
}

// keepPlaceholder 在没有任何非空条目时把槽位重置成一个空占位。
func (e *HostListEditor) keepPlaceholder() {
	if e.Count() == 0 {
		e.slots = []string{""}
	}
}

// Paste replaces every slot with the hosts parsed from text. Blank text is ignored.
func (e *HostListEditor) Paste(text string) {
	hosts := ParsePastedHosts(text)
	if len(hosts) == 0 {
		return
	}
	e.slots = hosts
}

// Commit 返回拼接后的 host 字符串，并把槽位压缩成非空条目；全空时重置为一个占位槽并返回 ""。
func (e *HostListEditor) Commit() string {
	value := JoinHosts(e.slots)
	e.slots = SplitHosts(value)
	e.keepPlaceholder()
	return value
}
