/*
Package operation runs XOR batches over a directory.

	+-----------+       +-----------+       +-----------+
	|   scan    | ----> | Processor | ----> |  status   |
	| (inputs)  |       |  (worker) |       | (outputs) |
	+-----------+       +-----+-----+       +-----------+
	                          |
	                   +------+------+
	                   |  conflict   |
	                   | (out paths) |
	                   +-------------+

🎯 Purpose:
- Owns the lifecycle of a batch: idle, running, completed or cancelled
- Runs one batch at a time on its own goroutine
- Reports every step through a status.Reporter

🔄 Flow of a run:
 1. Scan the input directory once; the candidate list is fixed from here on
 2. For each candidate, stop if cancellation was requested
 3. Read, transform, resolve the output path, write
 4. Delete the source when configured
 5. Report FileProcessed on success and Progress after every candidate
 6. Report Finished exactly once

⚡ Failure handling:
A file that cannot be read or written is skipped with a status.Diagnostic and
the batch continues. A missing input directory ends the run as completed with
Outcome.Err set and no per-file events. A failed source deletion is reported
but the file still counts as processed.

🔍 Example:

	proc, err := operation.New(operation.Options{Reporter: reporter})
	if err != nil {
		return err
	}
	if err := proc.Configure(cfg); err != nil {
		return err
	}
	if err := proc.Run(ctx); err != nil {
		return err
	}
	outcome, err := proc.Wait(ctx)
*/
package operation
