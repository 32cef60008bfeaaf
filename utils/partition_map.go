package utils

// PartitionMap splits the index range [0, MaxIndex) into ParallelDegree
// contiguous buckets whose sizes differ by at most one
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
}

func NewPartitionMap(parallelDegree, maxIndex int) *PartitionMap {
	if parallelDegree > maxIndex {
		parallelDegree = maxIndex
	}
	if parallelDegree < 1 {
		parallelDegree = 1
	}
	return &PartitionMap{MaxIndex: maxIndex, ParallelDegree: parallelDegree}
}

// GetBucketRange returns the half open range [kMin, kMax) of bucket bn
func (pm *PartitionMap) GetBucketRange(bn int) (kMin, kMax int) {
	base, extra := pm.MaxIndex/pm.ParallelDegree, pm.MaxIndex%pm.ParallelDegree
	kMin = bn*base + min(bn, extra)
	kMax = kMin + base
	if bn < extra {
		kMax++
	}
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) int {
	kMin, kMax := pm.GetBucketRange(bn)
	return kMax - kMin
}

// GetBucket returns the bucket holding index k
func (pm *PartitionMap) GetBucket(k int) int {
	for bn := 0; bn < pm.ParallelDegree; bn++ {
		if _, kMax := pm.GetBucketRange(bn); k < kMax {
			return bn
		}
	}
	return pm.ParallelDegree - 1
}
