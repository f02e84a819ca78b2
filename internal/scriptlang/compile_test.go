package scriptlang

import (
	"testing"

	"github.com/generalbots/botengine/domain/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileScenarioC(t *testing.T) {
	src := `let items = FIND "rob", "ACTION=EMUL1"
FOR EACH item IN items
  PRINT item.name
NEXT item`
	ast, err := Compile(src)
	require.NoError(t, err)
	require.Len(t, ast.Statements, 2)

	let, ok := ast.Statements[0].(script.Let)
	require.True(t, ok)
	assert.Equal(t, "items", let.Name)
	kc, ok := let.Expr.(script.KeywordCall)
	require.True(t, ok)
	assert.Equal(t, "FIND", kc.Keyword)
	require.Len(t, kc.Args, 2)

	fe, ok := ast.Statements[1].(script.ForEach)
	require.True(t, ok)
	assert.Equal(t, "item", fe.Var)
	assert.Equal(t, "item", fe.EndVar)
	require.Len(t, fe.Body, 1)
	_, ok = fe.Body[0].(script.Print)
	assert.True(t, ok)
}

func TestCompileFindArityMismatch(t *testing.T) {
	_, err := Compile(`let x = FIND "t"`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrArityMismatch, ce.Kind)
}

func TestCompileUnknownCreateForm(t *testing.T) {
	_, err := Compile(`CREATE WIDGET "a", "b"`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrUnknownKeyword, ce.Kind)
}

func TestCompileWebsiteOf(t *testing.T) {
	ast, err := Compile(`let u = WEBSITE OF "golang concurrency"`)
	require.NoError(t, err)
	let := ast.Statements[0].(script.Let)
	kc := let.Expr.(script.KeywordCall)
	assert.Equal(t, "WEBSITE OF", kc.Keyword)
}

func TestCompileIfElse(t *testing.T) {
	src := `IF x = 1
PRINT "one"
ELSE
PRINT "other"
END IF`
	ast, err := Compile(src)
	require.NoError(t, err)
	require.Len(t, ast.Statements, 1)
	ifStmt, ok := ast.Statements[0].(script.If)
	require.True(t, ok)
	assert.Len(t, ifStmt.Then, 1)
	assert.Len(t, ifStmt.Else, 1)
}

func TestCompileExitForRequiresFor(t *testing.T) {
	_, err := Compile("EXIT")
	require.Error(t, err)
}

func TestCompileCreateSiteAndDraft(t *testing.T) {
	ast, err := Compile(`CREATE SITE "n", "c", "w", "t", "p"
CREATE DRAFT "to@example.com", "subj", "body"`)
	require.NoError(t, err)
	require.Len(t, ast.Statements, 2)
	c1 := ast.Statements[0].(script.Call)
	assert.Equal(t, "CREATE SITE", c1.Keyword)
	assert.Len(t, c1.Args, 5)
	c2 := ast.Statements[1].(script.Call)
	assert.Equal(t, "CREATE DRAFT", c2.Keyword)
	assert.Len(t, c2.Args, 3)
}
