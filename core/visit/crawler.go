package visit

import (
	"fmt"
	"time"

	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
)

// Crawler runs visitors over a tree in a single pass.
type Crawler struct {
	visitors  []Visitor
	durations []time.Duration
}

// NewCrawler creates a crawler running visitors in registration order.
func NewCrawler(visitors ...Visitor) *Crawler {
	return &Crawler{visitors: visitors, durations: make([]time.Duration, len(visitors))}
}

type frame struct {
	component *tree.Component
	children  []*tree.Component
	next      int
}

// Visit crawls the subtree under root. The first visitor error aborts the crawl.
func (c *Crawler) Visit(root *tree.Component) error {
	for i, v := range c.visitors {
		c.durations[i] = 0
		v.reset()
	}
	if err := c.crawl(root); err != nil {
		return err
	}
	c.logDurations()
	return nil
}

func (c *Crawler) crawl(root *tree.Component) error {
	if err := c.enter(root); err != nil {
		return err
	}
	stack := []*frame{{component: root, children: c.childrenToVisit(root)}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++
			if err := c.enter(child); err != nil {
				return err
			}
			stack = append(stack, &frame{component: child, children: c.childrenToVisit(child)})
			continue
		}
		if err := c.leave(top.component); err != nil {
			return err
		}
		stack = stack[:len(stack)-1]
	}
	return nil
}

// childrenToVisit returns the children of comp if at least one visitor goes below its type.
func (c *Crawler) childrenToVisit(comp *tree.Component) []*tree.Component {
	for _, v := range c.visitors {
		if v.Limit().DescendsBelow(comp.Type()) {
			return comp.Children()
		}
	}
	return nil
}

func (c *Crawler) enter(comp *tree.Component) error {
	for i, v := range c.visitors {
		if !v.Limit().Includes(comp.Type()) {
			continue
		}
		v.enter(comp)
		if v.Order() == PreOrder {
			if err := c.run(i, v, comp); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Crawler) leave(comp *tree.Component) error {
	for i, v := range c.visitors {
		if !v.Limit().Includes(comp.Type()) {
			continue
		}
		if v.Order() == PostOrder {
			if err := c.run(i, v, comp); err != nil {
				return err
			}
		}
		v.leave(comp)
	}
	return nil
}

func (c *Crawler) run(i int, v Visitor, comp *tree.Component) error {
	start := time.Now()
	err := v.visit(comp)
	c.durations[i] += time.Since(start)
	if err != nil {
		return fmt.Errorf("visitor %s failed on %s: %w", v.Name(), comp, err)
	}
	return nil
}

// Durations returns the time spent in each visitor during the last crawl, keyed by name.
func (c *Crawler) Durations() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.visitors))
	for i, v := range c.visitors {
		out[v.Name()] += c.durations[i]
	}
	return out
}

func (c *Crawler) logDurations() {
	for i, v := range c.visitors {
		contract.LogDebug("  - %s | time=%dms", v.Name(), c.durations[i].Milliseconds())
	}
}
