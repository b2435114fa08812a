package gpt

import (
	"fmt"
	"sort"
)

// Reprioritize raises one kernel partition to the given priority and
// compacts every other kernel partition's nonzero priority downward,
// preserving their relative order. Partitions sharing a priority keep
// sharing one after compaction. Changes are made to the primary working
// copy and propagated to both copies.
func Reprioritize(d *Drive, target uint32, maxPriority int) error {
	if maxPriority < 1 {
		maxPriority = 1
	}
	ok, err := IsKernel(d, false, target)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("partition %d is not a kernel partition", target)
	}

	// Group the other kernel partitions by their current priority.
	groups := map[int][]uint32{}
	for i := uint32(0); i < d.NumberOfEntries(); i++ {
		if i == target {
			continue
		}
		kernel, err := IsKernel(d, false, i)
		if err != nil {
			return err
		}
		if !kernel {
			continue
		}
		e, err := d.GetEntry(false, i)
		if err != nil {
			return err
		}
		if p := e.Priority(); p > 0 {
			groups[p] = append(groups[p], i)
		}
	}

	priorities := make([]int, 0, len(groups))
	for p := range groups {
		priorities = append(priorities, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(priorities)))

	if err := SetPriority(d, false, target, maxPriority); err != nil {
		return err
	}
	next := maxPriority - 1
	for _, p := range priorities {
		if next < 1 {
			next = 1
		}
		for _, i := range groups[p] {
			if err := SetPriority(d, false, i, next); err != nil {
				return err
			}
		}
		next--
	}

	UpdateAllEntries(d)
	return nil
}
