package main

import (
	"os"
	"strconv"
	"strings"
)

// getMemoryLimit returns the container memory limit in bytes from the
// cgroup filesystem, supporting both cgroup v2 (memory.max) and the legacy
// cgroup v1 (memory.limit_in_bytes). Returns 0 with a nil error when no
// cgroup memory file is readable (bare metal, VM) or cgroup v2 reports
// "max". An unlimited cgroup v1 container reports the kernel's very large
// sentinel value, which is returned as is.
func getMemoryLimit() (int64, error) {
	if data, err := os.ReadFile("/sys/fs/cgroup/memory.max"); err == nil {
		limitStr := strings.TrimSpace(string(data))
		if limitStr != "max" {
			return strconv.ParseInt(limitStr, 10, 64)
		}
		return 0, nil
	}

	if data, err := os.ReadFile("/sys/fs/cgroup/memory/memory.limit_in_bytes"); err == nil {
		return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	}

	return 0, nil
}

// getCPULimit returns the container's allotted CPU count derived from the
// cgroup filesystem (cpu.max under v2: "<quota> <period>", or the v1
// cpu.cfs_quota_us/cpu.cfs_period_us pair), falling back to the
// caller-supplied configured value when no cgroup CPU limit is readable.
func getCPULimit(configured float64) float64 {
	if data, err := os.ReadFile("/sys/fs/cgroup/cpu.max"); err == nil {
		fields := strings.Fields(strings.TrimSpace(string(data)))
		if len(fields) == 2 && fields[0] != "max" {
			quota, errQ := strconv.ParseFloat(fields[0], 64)
			period, errP := strconv.ParseFloat(fields[1], 64)
			if errQ == nil && errP == nil && period > 0 {
				return quota / period
			}
		}
		return configured
	}

	quotaData, errQ := os.ReadFile("/sys/fs/cgroup/cpu/cpu.cfs_quota_us")
	periodData, errP := os.ReadFile("/sys/fs/cgroup/cpu/cpu.cfs_period_us")
	if errQ == nil && errP == nil {
		quota, errQ2 := strconv.ParseFloat(strings.TrimSpace(string(quotaData)), 64)
		period, errP2 := strconv.ParseFloat(strings.TrimSpace(string(periodData)), 64)
		if errQ2 == nil && errP2 == nil && quota > 0 && period > 0 {
			return quota / period
		}
	}

	return configured
}

// calculateWorkerCount determines a safe bare-mode polling pool size from
// the detected (or configured) CPU and memory limits.
//
// The bare ring layer never blocks, so a bare-mode subscriber has to be
// polled on a cadence rather than parked; feedsim drives that polling from a
// fixed worker pool (package internal/fanout) sized here the same way the
// predecessor sized its WebSocket connection ceiling from cgroup limits,
// retargeted from "connections a container can hold" to "poll workers a
// container can run concurrently without starving the publisher".
//
// Safety bounds: minimum 4 workers (useful even on a single core), maximum
// 256 (diminishing returns past that for a demo binary).
func calculateWorkerCount(memoryLimitBytes int64, cpuLimit float64) int {
	fromCPU := int(cpuLimit * 4)
	if fromCPU < 1 {
		fromCPU = 1
	}

	fromMemory := fromCPU
	if memoryLimitBytes > 0 {
		const runtimeOverheadBytes = 64 * 1024 * 1024
		const bytesPerWorker = 256 * 1024 // stack + queue slice headroom

		available := memoryLimitBytes - runtimeOverheadBytes
		if available < 0 {
			available = memoryLimitBytes / 2
		}
		fromMemory = int(available / bytesPerWorker)
	}

	workers := fromCPU
	if fromMemory < workers {
		workers = fromMemory
	}

	if workers < 4 {
		workers = 4
	}
	if workers > 256 {
		workers = 256
	}
	return workers
}
