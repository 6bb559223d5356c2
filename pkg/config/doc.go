/*
Package config loads and validates the settings a batch run works from.

	            +-------------+
	            |   Config    |
	            | (Snapshot)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |  JSON   |   |   HCL   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Reads a settings file in any registered format
- Fills in the defaults the tool has always shipped with
- Rejects settings that would make a run destructive or meaningless

🔄 Flow:
1. Load reads the file and picks a parser by extension
2. The parser decodes into Config, rejecting unknown keys
3. Validate fills defaults and cleans paths
4. Callers Clone the result before handing it to a processor

⚡ Defaults:

	input_mask      *.txt
	xor_value       0000000000000000
	output_path     $HOME
	conflict_policy overwrite
	use_timer       false
	timer_interval  1000 (ms)

📝 Notes:
A malformed xor_value is not a validation error. Load logs a warning and the
processor skips every file with a key_parse diagnostic, which is how the tool
has always behaved.

HCL files can reference the environment:

	input_path  = "${env.HOME}/inbox"
	output_path = "${env.HOME}/outbox"
*/
package config
