// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package sensors

import (
	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/kernel"
)

const (
	SectionDoInitModule           = "kprobe/do_init_module"
	SectionSecurityKernelReadFile = "kprobe/security_kernel_read_file"
	SectionCallUsermodehelper     = "kprobe/call_usermodehelper"

	// initModuleAncestry is the depth of the pid tree of module loads.
	initModuleAncestry = 6
)

func init() {
	registerHookAtInit(SectionDoInitModule, (*Sensor).KprobeDoInitModule)
	registerHookAtInit(SectionSecurityKernelReadFile, (*Sensor).KprobeSecurityKernelReadFile)
	registerHookAtInit(SectionCallUsermodehelper, (*Sensor).KprobeCallUsermodehelper)
}

// KprobeDoInitModule reports a module load: do_init_module(struct module *).
//
//	0: module name
//	1: exe
//	2: pid tree
//	3: cwd
func (s *Sensor) KprobeDoInitModule(ctx *HookContext) {
	e, ok := event.Begin(ctx.Task, ctx.Ktime)
	if !ok {
		return
	}
	e.SetType(ops.MSG_OP_DO_INIT_MODULE)

	name, err := kernel.ReadStr(s.mem, kernel.KernelSpace, ctx.Args[0]+s.layout.ModuleName, s.layout.ModuleNameLen)
	if err != nil {
		name = nil
	}
	e.AppendStr(0, string(name))
	e.AppendStr(1, exe(ctx.Task))
	e.AppendPidTree(2, ctx.Task.Ancestry(initModuleAncestry))

	cwd, ok := ctx.Task.Cwd()
	if !ok {
		return
	}
	e.AppendStr(3, cwd)
	s.submit(SectionDoInitModule, e)
}

// KprobeSecurityKernelReadFile reports a file read by the kernel on behalf
// of userspace: security_kernel_read_file(struct file *, enum kernel_read_file_id).
//
//	0: path
//	1: read purpose id
func (s *Sensor) KprobeSecurityKernelReadFile(ctx *HookContext) {
	e, ok := event.Begin(ctx.Task, ctx.Ktime)
	if !ok {
		return
	}
	e.SetType(ops.MSG_OP_SECURITY_KERNEL_READ)

	var path string
	if s.paths != nil {
		path, _ = s.paths.FilePath(ctx.Args[0])
	}
	e.AppendStr(0, path)
	e.AppendI32(1, int32(ctx.Args[1]))
	s.submit(SectionSecurityKernelReadFile, e)
}

// KprobeCallUsermodehelper reports a usermode helper exec:
// call_usermodehelper(const char *path, char **argv, char **envp, int wait).
//
//	0: path
//	1: argv
//	2: envp
//	3: wait
//	4: exe
func (s *Sensor) KprobeCallUsermodehelper(ctx *HookContext) {
	e, ok := event.Begin(ctx.Task, ctx.Ktime)
	if !ok {
		return
	}
	e.SetType(ops.MSG_OP_CALL_USERMODEHELPER)

	e.AppendStrFrom(s.mem, kernel.KernelSpace, 0, ctx.Args[0])
	e.AppendStrArrayFrom(s.mem, 1, ctx.Args[1])
	e.AppendStrArrayFrom(s.mem, 2, ctx.Args[2])
	e.AppendI32(3, int32(ctx.Args[3]))
	e.AppendStr(4, exe(ctx.Task))
	s.submit(SectionCallUsermodehelper, e)
}
