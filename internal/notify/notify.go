// Package notify delivers analysis notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

var headerColor = color.New(color.Bold)

// Console prints notifications on a writer, typically stderr.
type Console struct {
	mu        sync.Mutex
	w         io.Writer
	useColors bool
}

var _ contract.NotificationService = &Console{} // Compile-time check

// NewConsole creates a console service writing to w.
func NewConsole(w io.Writer, useColors bool) *Console {
	return &Console{w: w, useColors: useColors}
}

// Deliver implements the NotificationService interface.
func (c *Console) Deliver(ctx context.Context, n schema.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.Type == "" {
		return contract.NewArgumentError("Notification type is missing")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	header := fmt.Sprintf("[%s] %s", n.Type, n.ProjectKey)
	if c.useColors {
		header = headerColor.Sprint(header)
	}
	if _, err := fmt.Fprintf(c.w, "%s %s\n", header, c.summary(n)); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

// summary renders the alert fields first, then any other field in key order.
func (c *Console) summary(n schema.Notification) string {
	var parts []string
	if name, ok := n.Fields["alertName"]; ok {
		if c.useColors {
			name = colorize(schema.EvaluationStatus(n.Fields["alertLevel"]), name)
		}
		parts = append(parts, name)
	}
	for _, key := range slices.Sorted(maps.Keys(n.Fields)) {
		if key == "alertName" || key == "alertLevel" || n.Fields[key] == "" {
			continue
		}
		parts = append(parts, key+"="+n.Fields[key])
	}
	return strings.Join(parts, " ")
}

func colorize(status schema.EvaluationStatus, text string) string {
	switch status {
	case schema.ErrorStatus:
		return contract.ErrorColor.Sprint(text)
	case schema.OKStatus:
		return contract.OKColor.Sprint(text)
	case schema.NoValueStatus:
		return contract.NoValueColor.Sprint(text)
	}
	return text
}
