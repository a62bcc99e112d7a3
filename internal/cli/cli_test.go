package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/StowPlan/internal/engine"
	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/piwi3910/StowPlan/internal/project"
)

// testEnv isolates config and preset files in a temp directory.
type testEnv struct {
	t         *testing.T
	dir       string
	config    string
	inventory string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		t:         t,
		dir:       dir,
		config:    filepath.Join(dir, "config.json"),
		inventory: filepath.Join(dir, "inventory.json"),
	}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

// run executes the root command and returns stdout, stderr and the error.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.config, "--inventory", e.inventory}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, stderr, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return out
}

func (e *testEnv) load(path string) *model.Project {
	e.t.Helper()
	p, err := project.LoadProject(path, project.NewCatalog(""))
	require.NoError(e.t, err)
	return p
}

// newCrateProject creates a 20ft project holding Crate_1 at x 0 and Crate_2 at x 1000.
func newCrateProject(e *testEnv) string {
	path := e.path("ship.clp")
	e.mustRun("new", path, "--container", "20ft-std")
	e.mustRun("add", path, "--name", "Crate", "-l", "1000", "-w", "800", "-H", "900", "--weight", "80", "--qty", "2")
	return path
}

func exitCode(t *testing.T, err error) ExitCode {
	t.Helper()
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr), "expected CLIError, got %v", err)
	return cliErr.Code
}

func TestNewCreatesProject(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("new", e.path("ship"), "--container", "40ft-hc")
	assert.Contains(t, out, "Created")
	assert.Contains(t, out, "40' High Cube")

	p := e.load(e.path("ship.clp"))
	assert.Equal(t, "ship", p.Name)
	assert.Equal(t, "40ft-hc", p.Container.ID)
	assert.Equal(t, 0, p.Len())

	_, _, err := e.run("new", e.path("ship.clp"))
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(t, err))

	e.mustRun("new", e.path("ship.clp"), "--force", "--name", "Shipment 42")
	assert.Equal(t, "Shipment 42", e.load(e.path("ship.clp")).Name)
}

func TestNewUsesDefaultContainerAndRecordsRecent(t *testing.T) {
	e := newTestEnv(t)
	path := e.path("default.clp")

	e.mustRun("new", path)
	assert.Equal(t, model.DefaultAppConfig().DefaultContainerID, e.load(path).Container.ID)

	cfg, err := project.LoadAppConfig(e.config)
	require.NoError(t, err)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.RecentProjects)
	assert.Equal(t, abs, cfg.RecentProjects[0])
}

func TestNewUnknownContainer(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := e.run("new", e.path("x.clp"), "--container", "53ft")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestAddLaysOutBoxesInRow(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	p := e.load(path)
	require.Equal(t, 2, p.Len())
	c1, ok := p.Find("Crate_1").(*model.Box)
	require.True(t, ok)
	c2, ok := p.Find("Crate_2").(*model.Box)
	require.True(t, ok)
	assert.Equal(t, 0.0, c1.X)
	assert.Equal(t, 1000.0, c2.X)
	assert.Equal(t, 80.0, c2.Weight)
}

func TestAddStackedFromPreset(t *testing.T) {
	e := newTestEnv(t)
	path := e.path("ship.clp")
	e.mustRun("new", path, "--container", "20ft-std")

	out := e.mustRun("add", path, "--preset", "EUR pallet", "--qty", "3", "--stacked", "--x", "100", "--y", "200")
	assert.Contains(t, out, "Added 1 item(s)")

	p := e.load(path)
	require.Equal(t, 1, p.Len())
	st, ok := p.Items()[0].(*model.Stack)
	require.True(t, ok)
	assert.Equal(t, "Stack_EUR pallet_1", st.Name)
	assert.Equal(t, 3, st.BoxCount())
	x, y := st.Position()
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 200.0, y)
}

func TestAddRequiresPresetOrName(t *testing.T) {
	e := newTestEnv(t)
	path := e.path("ship.clp")
	e.mustRun("new", path)

	_, _, err := e.run("add", path)
	assert.Equal(t, ExitUsage, exitCode(t, err))

	_, _, err = e.run("add", path, "--preset", "No such preset")
	assert.Equal(t, ExitUsage, exitCode(t, err))

	_, _, err = e.run("add", path, "--name", "Bad", "-l", "0", "-w", "10", "-H", "10")
	assert.Equal(t, ExitUsage, exitCode(t, err))

	_, _, err = e.run("add", path, "--name", "Crate", "-l", "10", "-w", "10", "-H", "10", "--qty", "0")
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestAddWarnsOnCollision(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	_, stderr, err := e.run("add", path, "--name", "Overlap", "-l", "500", "-w", "500", "-H", "500")
	require.NoError(t, err)
	assert.Contains(t, stderr, "item collides")
	assert.Equal(t, 3, e.load(path).Len())
}

func TestCheckCleanLayoutJSON(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	out := e.mustRun("check", path, "--json")

	var report checkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.OK)
	assert.Equal(t, "20ft-std", report.Container)
	assert.Equal(t, 2, report.Summary.Items)
	assert.Equal(t, 2, report.Summary.LoadedItems)
	assert.InDelta(t, 160.0, report.Summary.LoadedWeight, 1e-9)
	assert.Empty(t, report.Violations)
}

func TestCheckReportsViolations(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)
	e.mustRun("add", path, "--name", "Overlap", "-l", "500", "-w", "500", "-H", "500", "--x", "200")
	e.mustRun("add", path, "--name", "Parked", "-l", "500", "-w", "500", "-H", "500", "--x", "7000")

	out, _, err := e.run("check", path)
	require.Error(t, err)
	assert.Equal(t, ExitViolations, exitCode(t, err))
	assert.Contains(t, out, "3 item(s) with violations:")
	assert.Contains(t, out, "Crate_1: overlaps Overlap")
	assert.Contains(t, out, "Parked: outside container")

	out, _, err = e.run("check", path, "--loaded-only")
	require.Error(t, err)
	assert.Contains(t, out, "2 item(s) with violations:")
	assert.NotContains(t, out, "Parked:")
}

func TestStackOntoBoxThenStack(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)
	e.mustRun("add", path, "--name", "Lid", "-l", "1000", "-w", "800", "-H", "200", "--x", "3000")

	out := e.mustRun("stack", path, "Crate_2", "Crate_1")
	assert.Equal(t, "Stack_Crate_1: 2 boxes, 1800 mm\n", out)

	out = e.mustRun("stack", path, "Lid", "Stack_Crate_1")
	assert.Equal(t, "Stack_Crate_1: 3 boxes, 2000 mm\n", out)

	p := e.load(path)
	require.Equal(t, 1, p.Len())
	st, ok := p.Find("Stack_Crate_1").(*model.Stack)
	require.True(t, ok)
	assert.Equal(t, 3, st.BoxCount())

	e.mustRun("check", path)
}

func TestStackRejectsDoorHeight(t *testing.T) {
	e := newTestEnv(t)
	path := e.path("ship.clp")
	e.mustRun("new", path, "--container", "20ft-std")
	e.mustRun("add", path, "--name", "Tall", "-l", "1000", "-w", "800", "-H", "1200", "--qty", "2")

	_, _, err := e.run("stack", path, "Tall_2", "Tall_1")
	require.Error(t, err)
	assert.True(t, model.IsGeometryError(err), err)

	p := e.load(path)
	assert.Equal(t, 2, p.Len())
	b, ok := p.Find("Tall_2").(*model.Box)
	require.True(t, ok)
	assert.Equal(t, 1000.0, b.X)
}

func TestStackRejectsSelfAndStacks(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	_, _, err := e.run("stack", path, "Crate_1", "Crate_1")
	assert.Equal(t, ExitUsage, exitCode(t, err))

	e.mustRun("stack", path, "Crate_2", "Crate_1")
	e.mustRun("add", path, "--name", "Loose", "-l", "1000", "-w", "800", "-H", "100", "--x", "3000")
	_, _, err = e.run("stack", path, "Stack_Crate_1", "Loose")
	assert.Equal(t, ExitUsage, exitCode(t, err))

	_, _, err = e.run("stack", path, "Missing", "Loose")
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestMoveRefusesCollisionUnlessForced(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	_, _, err := e.run("move", path, "Crate_2", "500", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Crate_2 would collide with Crate_1")
	b, ok := e.load(path).Find("Crate_2").(*model.Box)
	require.True(t, ok)
	assert.Equal(t, 1000.0, b.X)

	out := e.mustRun("move", path, "Crate_2", "2000", "1000")
	assert.Contains(t, out, "Crate_2 at (2000, 1000)")

	_, stderr, err := e.run("move", path, "Crate_2", "500", "0", "--force")
	require.NoError(t, err)
	assert.Contains(t, stderr, "item collides")
	b, ok = e.load(path).Find("Crate_2").(*model.Box)
	require.True(t, ok)
	assert.Equal(t, 500.0, b.X)
}

func TestMoveOutsideContainerRefused(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	_, _, err := e.run("move", path, "Crate_1", "0", "2000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container wall")

	_, _, err = e.run("move", path, "Crate_1", "abc", "0")
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestRotate(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	e.mustRun("rotate", path, "Crate_1")
	b, ok := e.load(path).Find("Crate_1").(*model.Box)
	require.True(t, ok)
	assert.Equal(t, model.Rot90, b.Rotation)

	e.mustRun("rotate", path, "Crate_1")
	b, ok = e.load(path).Find("Crate_1").(*model.Box)
	require.True(t, ok)
	assert.Equal(t, model.Rot0, b.Rotation)
}

func TestImportCSV(t *testing.T) {
	e := newTestEnv(t)
	path := e.path("ship.clp")
	e.mustRun("new", path, "--container", "40ft-std")

	csvPath := e.path("boxes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Name,Quantity,Length,Width,Height,Weight\n"+
			"Crate,3,1000,800,600,50\n"+
			"Broken,1,abc,800,600,50\n"), 0644))

	out := e.mustRun("import", path, csvPath)
	assert.Contains(t, out, "Imported 3 item(s), 3 box(es)")
	assert.Contains(t, out, "1 row(s) skipped")
	assert.Equal(t, 3, e.load(path).Len())

	out = e.mustRun("import", path, csvPath, "--stacked", "--json")
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1.0, res["items"])
	assert.Equal(t, 3.0, res["boxes"])
	assert.Equal(t, 4, e.load(path).Len())
}

func TestImportNothingUsable(t *testing.T) {
	e := newTestEnv(t)
	path := e.path("ship.clp")
	e.mustRun("new", path)

	csvPath := e.path("empty.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Name,Quantity,Length,Width,Height\n"), 0644))

	_, _, err := e.run("import", path, csvPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no boxes imported")
}

func TestExportCommands(t *testing.T) {
	e := newTestEnv(t)
	path := newCrateProject(e)

	for _, format := range []string{"pdf", "labels", "xlsx"} {
		out := e.path("out." + format)
		stdout := e.mustRun("export", format, path, out)
		assert.Contains(t, stdout, "Wrote")
		info, err := os.Stat(out)
		require.NoError(t, err, format)
		assert.Greater(t, info.Size(), int64(0), format)
	}
}

func TestExportEmptyProjectFails(t *testing.T) {
	e := newTestEnv(t)
	path := e.path("empty.clp")
	e.mustRun("new", path)

	_, _, err := e.run("export", "pdf", path, e.path("empty.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export pdf failed")
}

func TestContainersAndPresets(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("containers")
	assert.Contains(t, out, "20ft-std")
	assert.Contains(t, out, "45ft-hc")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, model.DefaultAppConfig().DefaultContainerID+" ") {
			assert.True(t, strings.HasSuffix(line, " *"), line)
		}
	}

	out = e.mustRun("presets")
	assert.Contains(t, out, "EUR pallet")

	out = e.mustRun("presets", "--json")
	var inv model.Inventory
	require.NoError(t, json.Unmarshal([]byte(out), &inv))
	assert.Len(t, inv.Boxes, len(model.DefaultInventory().Boxes))
}

func TestPresetsImport(t *testing.T) {
	e := newTestEnv(t)
	src := e.path("more.json")
	extra := model.Inventory{Boxes: []model.BoxPreset{
		model.NewBoxPreset("Drum", 600, 600, 900, 20, "#336699"),
	}}
	require.NoError(t, project.SaveInventory(src, extra))

	out := e.mustRun("presets", "import", src)
	assert.Contains(t, out, "Imported 1 preset(s)")

	inv, err := project.LoadInventory(e.inventory)
	require.NoError(t, err)
	assert.NotNil(t, inv.FindBoxByName("Drum"))
}

func TestBackupRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("new", e.path("ship.clp"), "--container", "20ft-std")
	e.mustRun("presets")

	backupPath := e.path("backup.json")
	e.mustRun("backup", "export", backupPath)

	other := newTestEnv(t)
	out := other.mustRun("backup", "import", backupPath)
	assert.Contains(t, out, "Restored config")

	cfg, err := project.LoadAppConfig(other.config)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.RecentProjects)
	inv, err := project.LoadInventory(other.inventory)
	require.NoError(t, err)
	assert.Len(t, inv.Boxes, len(model.DefaultInventory().Boxes))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, "cannot open project", errors.New("missing"))
	assert.Equal(t, "Error: cannot open project: missing\n", buf.String())

	jsonOutput = true
	defer func() { jsonOutput = false }()

	buf.Reset()
	printError(&buf, "cannot open project", errors.New("missing"))
	var obj map[string]map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &obj))
	assert.Equal(t, "cannot open project", obj["error"]["message"])
	assert.Equal(t, "missing", obj["error"]["detail"])
}

func TestOffenderNames(t *testing.T) {
	c := model.NewContainer("t", 1000, 1000, 1000, 500)
	eng := engine.New(model.DefaultSettings())

	a := model.NewBox("A", 400, 400, 300)
	b := model.NewBox("B", 400, 400, 300)
	st, err := model.NewStack("Tall", a, b)
	require.NoError(t, err)

	st.MoveTo(800, 0)
	other := model.NewBox("Other", 400, 400, 100)
	other.MoveTo(700, 0)

	ok, offenders, err := eng.CheckCollisions(st, []model.Item{st, other}, c)
	require.NoError(t, err)
	require.False(t, ok)
	names := offenderNames(st, offenders)
	assert.Contains(t, names, "container wall")
	assert.Contains(t, names, "Other")
	assert.Contains(t, names, "door height")
}
