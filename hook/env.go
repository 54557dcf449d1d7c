package hook

import (
	"strconv"
)

// Kind tells which boundary triggered a hook.
type Kind int

const (
	PrePart Kind = iota
	PostPart
	PostRun
)

func (k Kind) String() string {
	switch k {
	case PrePart:
		return "pre-part"
	case PostPart:
		return "post-part"
	case PostRun:
		return "post-run"
	default:
		return "unknown"
	}
}

// Environment variable names exported to hooks.
const (
	EnvHookType      = "FPART_HOOKTYPE"
	EnvPartFilename  = "FPART_PARTFILENAME"
	EnvPartNumber    = "FPART_PARTNUMBER"
	EnvPartSize      = "FPART_PARTSIZE"
	EnvTotalSize     = "FPART_TOTALSIZE"
	EnvPartNumFiles  = "FPART_PARTNUMFILES"
	EnvTotalNumFiles = "FPART_TOTALNUMFILES"
	EnvPartErrno     = "FPART_PARTERRNO"
	EnvPID           = "FPART_PID"
	EnvTotalNumParts = "FPART_TOTALNUMPARTS"
)

// Env is the context handed to a hook.
// Partition fields are ignored for PostRun hooks.
type Env struct {
	Kind Kind

	PartFilename string // output file of the partition, empty when printing to stdout
	PartNumber   int    // display number of the partition
	PartSize     uint64
	PartNumFiles uint64
	PartErrno    int // last traversal error seen in the partition

	TotalSize     uint64
	TotalNumFiles uint64
	TotalNumParts uint64

	PID int // pid of the fpart process
}

// Vars returns the FPART_* variables as KEY=value pairs.
func (e Env) Vars() []string {
	vars := []string{EnvHookType + "=" + e.Kind.String()}

	partHook := e.Kind != PostRun
	if partHook && e.PartFilename != "" {
		vars = append(vars, EnvPartFilename+"="+e.PartFilename)
	}
	if partHook {
		vars = append(vars,
			EnvPartNumber+"="+strconv.Itoa(e.PartNumber),
			EnvPartSize+"="+strconv.FormatUint(e.PartSize, 10),
		)
	}
	vars = append(vars, EnvTotalSize+"="+strconv.FormatUint(e.TotalSize, 10))
	if partHook {
		vars = append(vars, EnvPartNumFiles+"="+strconv.FormatUint(e.PartNumFiles, 10))
	}
	vars = append(vars, EnvTotalNumFiles+"="+strconv.FormatUint(e.TotalNumFiles, 10))
	if partHook {
		vars = append(vars, EnvPartErrno+"="+strconv.Itoa(e.PartErrno))
	}
	vars = append(vars,
		EnvPID+"="+strconv.Itoa(e.PID),
		EnvTotalNumParts+"="+strconv.FormatUint(e.TotalNumParts, 10),
	)
	return vars
}
