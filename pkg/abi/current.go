package abi

// currentEntries is the ABI shipped with the kernel. Numbers are positions:
// only ever append to this list.
var currentEntries = [...]Entry{
	Returning("add_thread"),
	Returning("get_thread_property"),
	Returning("set_thread_property"),
	Returning("get_kernel_config"),
	Void("set_kernel_config"),
	Void("yield"),
	Returning("get_msg"),
	Returning("send_msg"),
	Void("thread_wait"),
	Returning("thread_wake"),
	Returning("thread_cancel"),
	Returning("mutex"),
	// Some condition variable operations are void, but the kernel writes a
	// fixed success value for all of them.
	Returning("condition_variable"),
	Returning("open"),
	Returning("read"),
	Returning("write"),
	Returning("lseek"),
	Returning("remove"),
	Returning("close"),
	Void("exit"),
	Returning("malloc"),
	Returning("realloc"),
	Void("free"),
	Returning("list_dir"),
}

// Current returns the built-in ABI table.
func Current() *Table {
	return New(currentEntries[:]...)
}
