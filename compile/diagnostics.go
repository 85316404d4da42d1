// Copyright (c) 2017-2021, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package compile

import (
	"fmt"
	"runtime"

	"github.com/danos/mgmterror"
	"github.com/sdcio/yang-schema-compiler/parse"
)

// DiagKind identifies the kind of semantic problem a diagnostic reports.
// The set is closed: callers that need to react programmatically to a
// specific failure (rather than just print it) can safely switch on this
// instead of matching error strings.
type DiagKind int

const (
	DiagUnknown DiagKind = iota
	DiagDupEntry
	DiagDefNotFound
	DiagInvalidValue
	DiagWrongType
	DiagMissingRefTarget
	DiagRefineNotAllowed
	DiagDupRefineStmt
	DiagMandatoryNotAllowed
	DiagInvalidAugTarget
	DiagInvalidDevStmt
	DiagDupAugNode
	DiagInvalidConditional
	DiagUniqueConditionalMismatch
	DiagTypeNotIndex
	DiagWrongIndexType
	DiagLeafrefLoop
	DiagTopLevelMandatory
	DiagDataMissing
	DiagInvalidStatus
	DiagStmtIgnored
	DiagDefChoiceNotOptional
	DiagUsingReservedName
	DiagEOF
	DiagInternalMem
	DiagInternalVal
)

func (k DiagKind) String() string {
	switch k {
	case DiagDupEntry:
		return "DUP_ENTRY"
	case DiagDefNotFound:
		return "DEF_NOT_FOUND"
	case DiagInvalidValue:
		return "INVALID_VALUE"
	case DiagWrongType:
		return "WRONG_TYPE"
	case DiagMissingRefTarget:
		return "MISSING_REFTARGET"
	case DiagRefineNotAllowed:
		return "REFINE_NOT_ALLOWED"
	case DiagDupRefineStmt:
		return "DUP_REFINE_STMT"
	case DiagMandatoryNotAllowed:
		return "MANDATORY_NOT_ALLOWED"
	case DiagInvalidAugTarget:
		return "INVALID_AUGTARGET"
	case DiagInvalidDevStmt:
		return "INVALID_DEV_STMT"
	case DiagDupAugNode:
		return "DUP_AUGNODE"
	case DiagInvalidConditional:
		return "INVALID_CONDITIONAL"
	case DiagUniqueConditionalMismatch:
		return "UNIQUE_CONDITIONAL_MISMATCH"
	case DiagTypeNotIndex:
		return "TYPE_NOT_INDEX"
	case DiagWrongIndexType:
		return "WRONG_INDEX_TYPE"
	case DiagLeafrefLoop:
		return "LEAFREF_LOOP"
	case DiagTopLevelMandatory:
		return "TOP_LEVEL_MANDATORY"
	case DiagDataMissing:
		return "DATA_MISSING"
	case DiagInvalidStatus:
		return "INVALID_STATUS"
	case DiagStmtIgnored:
		return "STMT_IGNORED"
	case DiagDefChoiceNotOptional:
		return "DEFCHOICE_NOT_OPTIONAL"
	case DiagUsingReservedName:
		return "USING_RESERVED_NAME"
	case DiagEOF:
		return "EOF"
	case DiagInternalMem:
		return "INTERNAL_MEM"
	case DiagInternalVal:
		return "INTERNAL_VAL"
	default:
		return "UNKNOWN"
	}
}

// Severity distinguishes problems that abort the whole compile (a bug in
// the compiler itself, an I/O failure, a stack/recursion overrun) from
// problems with the YANG being compiled, which should be latched and
// reported alongside any others found in the same run.
type Severity int

const (
	SeveritySystem Severity = iota
	SeveritySemantic
)

// Diagnostic is a single latched compile problem.  Unlike the bare errors
// produced by (*Compiler).error, a Diagnostic carries a closed Kind so
// tooling built on this package can filter/group/count failures instead of
// pattern-matching messages, and it wraps an mgmterror application error so
// the same diagnostic can be handed back across a NETCONF-style RPC
// boundary unchanged.
type Diagnostic struct {
	Kind     DiagKind
	Severity Severity
	Location string
	Err      error
}

func (d *Diagnostic) Error() string {
	if d.Location == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Err)
	}
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Kind, d.Err)
}

func newDiagnostic(n parse.Node, kind DiagKind, err error) *Diagnostic {
	loc, _ := n.ErrorContext()
	return &Diagnostic{
		Kind:     kind,
		Severity: SeveritySemantic,
		Location: loc,
		Err:      err,
	}
}

// mgmtError renders a Diagnostic as a NETCONF rpc-error, in the same idiom
// used elsewhere in this module (see schema/errors.go) for surfacing
// problems to a management-plane caller.
func (d *Diagnostic) mgmtError() error {
	switch d.Kind {
	case DiagDataMissing:
		e := mgmterror.NewDataMissingError()
		e.Message = d.Error()
		return e
	case DiagDefNotFound, DiagMissingRefTarget:
		e := mgmterror.NewUnknownElementApplicationError(d.Kind.String())
		e.Message = d.Error()
		return e
	default:
		e := mgmterror.NewOperationFailedApplicationError()
		e.Message = d.Error()
		return e
	}
}

// DiagnosticList is a latched, ordered collection of semantic diagnostics
// gathered across a single compile run (the "retres" result set: unlike a
// panic/recover abort, accumulating here lets the compiler keep examining
// later modules/deviations after an earlier one fails, so one run surfaces
// every problem it can find rather than only the first).
type DiagnosticList []*Diagnostic

func (dl DiagnosticList) Error() string {
	if len(dl) == 0 {
		return ""
	}
	if len(dl) == 1 {
		return dl[0].Error()
	}
	s := fmt.Sprintf("%d errors found:", len(dl))
	for _, d := range dl {
		s += "\n\t" + d.Error()
	}
	return s
}

func (dl DiagnosticList) HasSystemError() bool {
	for _, d := range dl {
		if d.Severity == SeveritySystem {
			return true
		}
	}
	return false
}

// Diagnostics returns every semantic diagnostic latched during the most
// recent ExpandModules call, in the order they were found.
func (c *Compiler) Diagnostics() DiagnosticList { return c.diagnostics }

// latch recovers a panic produced by (*Compiler).error (or a runtime panic,
// which is re-raised rather than latched - that always indicates a bug in
// the compiler, not a problem with the YANG being compiled) and appends it
// to c.diagnostics as a semantic diagnostic of the given kind, letting the
// caller's loop move on to the next module/deviation/grouping instead of
// unwinding the whole compile.
func (c *Compiler) latch(n parse.Node, kind DiagKind, errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if re, ok := e.(runtime.Error); ok {
		panic(re)
	}
	err, ok := e.(error)
	if !ok {
		err = fmt.Errorf("%v", e)
	}
	d := newDiagnostic(n, kind, err)
	c.diagnostics = append(c.diagnostics, d)
	if errp != nil {
		*errp = d
	}
}
