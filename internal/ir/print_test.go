package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	want := `; ModuleID = 'demo'

@greeting = internal constant c"hi" !dbg !2
@counter = external global 0
@table = private constant refs(@helper)

define external @main(i32 %argc) size=12 calls(@helper, @puts) refs(@greeting, @counter) !dbg !1
define internal @helper(i32 %x) size=3 !dbg !3
declare external @puts(ptr)

!0 = compile_unit "demo.c"
!1 = subprogram "main" scope !0
!2 = global_variable "greeting" scope !0
!3 = subprogram "helper" scope !0

!llvm.dbg.cu = {!0}
`
	assert.Equal(t, want, Sprint(sampleModule()))
}

func TestPrintEmptyModule(t *testing.T) {
	assert.Equal(t, "; ModuleID = 'empty'\n", Sprint(&Module{Name: "empty"}))
}

func TestPrintAttrsAndOperands(t *testing.T) {
	m := &Module{
		Name: "attrs",
		Functions: []*Function{
			{Name: "f", Linkage: LinkageInternal, Attrs: []string{"nounwind", "readnone"}, Size: 1},
			{Name: "abort", Linkage: LinkageExternal, Declaration: true, Attrs: []string{"noreturn"}},
		},
		NamedMetadata: []NamedMetadata{{Name: "llvm.used", Operands: []string{"f"}}},
	}

	want := `; ModuleID = 'attrs'

define internal @f() size=1 attrs(nounwind readnone)
declare external @abort() attrs(noreturn)

!llvm.used = {@f}
`
	assert.Equal(t, want, Sprint(m))
}
