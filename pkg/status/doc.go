/*
Package status carries everything a run reports and touches on disk.

	            +-------------+
	            |   Status    |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +-----+-----+
	|   Files   |           |  Events   |
	| (Storage) |           | (Reports) |
	+-----------+           +-----------+

🎯 Purpose:
- FileManager: open, write, delete and probe files for the worker
- Reporter: progress, per-file and finished notifications
- Outcome: the terminal summary of a run, including diagnostics

🔄 Delivery:
Reporters are called on the worker goroutine in strict processing order.
ChannelReporter moves them to another goroutine without reordering, so a
slow consumer never holds up the worker. LogReporter writes them to the
context logger. Multi fans out to several reporters.

🔍 Example:

	events := status.NewChannelReporter()
	defer events.Close()

	reporter := status.Multi(status.NewLogReporter(nil), events)

	for ev := range events.Events() {
		if ev.Kind == status.EventFinished {
			break
		}
	}
*/
package status
