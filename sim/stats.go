package sim

// RegionStats summarizes the layout of a region at one point in time.
type RegionStats struct {
	TotalSize      int64
	UsedSize       int64 // sum of occupied block sizes
	FreeSize       int64 // sum of free block sizes
	OccupiedBlocks int
	FreeBlocks     int
	LargestFree    int64 // size of the largest free block (0 if none)

	// Utilization is UsedSize / TotalSize.
	Utilization float64
	// ExternalFragmentation is 1 - LargestFree/FreeSize: 0 when all free space is one block
	// (or nothing is free), approaching 1 as free space splinters.
	ExternalFragmentation float64
}

// ComputeStats derives RegionStats from a block list. Pure function.
func ComputeStats(totalSize int64, blocks []Block) RegionStats {
	stats := RegionStats{TotalSize: totalSize}
	for _, b := range blocks {
		if b.Free {
			stats.FreeBlocks++
			stats.FreeSize += b.Size
			if b.Size > stats.LargestFree {
				stats.LargestFree = b.Size
			}
			continue
		}
		stats.OccupiedBlocks++
		stats.UsedSize += b.Size
	}
	if totalSize > 0 {
		stats.Utilization = float64(stats.UsedSize) / float64(totalSize)
	}
	if stats.FreeSize > 0 {
		stats.ExternalFragmentation = 1 - float64(stats.LargestFree)/float64(stats.FreeSize)
	}
	return stats
}

// Stats returns the current RegionStats of r.
func (r *Region) Stats() RegionStats {
	return ComputeStats(r.totalSize, r.blocks)
}
