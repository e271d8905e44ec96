// jobs.go derives the compiler parallelism for the source builds.
//
// The derivation is deterministic from host resources: one make job per
// CPU, derated to one job per GiB of RAM on low-memory boards. A 4-core
// board with 1GiB of RAM gets -j1; a slow build beats an OOM-killed one
// partway through the SDK compile.
package host

// DeriveJobs returns the make parallelism for the given CPU count and
// total memory. An explicit positive override wins unconditionally.
// Unknown memory (zero) is treated as the smallest supported board.
func DeriveJobs(override, cpus int, memBytes uint64) int {
	if override > 0 {
		return override
	}

	jobs := cpus
	if jobs < 1 {
		jobs = 1
	}

	memGiB := int(memBytes >> 30)
	if memGiB < 1 {
		memGiB = 1
	}
	if jobs > memGiB {
		jobs = memGiB
	}
	return jobs
}
