package utils

import (
	"runtime"
	"sync"
)

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// DefaultParallelDegree is used when a configuration leaves the degree unset.
func DefaultParallelDegree() int { return runtime.NumCPU() }

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// Splits MaxIndex into pm.ParallelDegree contiguous pieces, sizes differ by at most one
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

// ParallelRange runs fn once per non-empty partition, each in its own go
// routine, and waits for all of them. Partitions are contiguous and ordered,
// so the first non-nil error in partition order is the one raised at the
// lowest index, independent of scheduling.
func (pm *PartitionMap) ParallelRange(fn func(np, kMin, kMax int) error) error {
	var (
		NP   = pm.ParallelDegree
		errs = make([]error, NP)
		wg   = sync.WaitGroup{}
	)
	for np := 0; np < NP; np++ {
		kMin, kMax := pm.GetBucketRange(np)
		if kMax == kMin {
			continue
		}
		wg.Add(1)
		go func(np, kMin, kMax int) {
			errs[np] = fn(np, kMin, kMax)
			wg.Done()
		}(np, kMin, kMax)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
