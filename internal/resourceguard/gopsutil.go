// Copyright (c) 2026 locksmith contributors
//
// File: gopsutil.go
// Brief: Production memory sampler backed by gopsutil
//
// License: BSD-3-Clause

package resourceguard

import "github.com/shirou/gopsutil/mem"

// GopsutilSampler is the production Sampler: available RAM as a fraction
// of total, per github.com/shirou/gopsutil/mem.VirtualMemory. This is the
// same signal the teacher's Supervisor polls (v.Available/v.Total).
func GopsutilSampler() (float64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	if v.Total == 0 {
		return 1, nil
	}
	return float64(v.Available) / float64(v.Total), nil
}
