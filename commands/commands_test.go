package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gridmdp/problem"
	"gridmdp/reinforcement"

	. "github.com/smartystreets/goconvey/convey"
)

const evaluationFile = `discount: 1
noise: 0
livingReward: 0
iterations: 4
grid:
    S    _    _    1
policy:
    E    E    E    exit
`

const tieFile = `discount: 0.9
noise: 0
livingReward: 0
iterations: 3
grid:
    S    1
    1    _
`

const loopingEpisodeFile = `seed: 3
noise: 0
livingReward: -0.01
grid:
    S    _    1
policy:
    W    E    exit
`

func writeTemp(dir, name, content string) string {
	path := filepath.Join(dir, name)
	So(os.WriteFile(path, []byte(content), 0o644), ShouldBeNil)
	return path
}

func execute(args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := GetRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--env", "", "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	Convey("When running the command line", t, func() {
		dir := t.TempDir()

		Convey("When evaluating a file, the document is printed", func() {
			path := writeTemp(dir, "eval.txt", evaluationFile)
			out, err := execute("evaluate", path)
			So(err, ShouldBeNil)

			expected, err := problem.Solve(problem.Evaluation, strings.NewReader(evaluationFile), problem.Options{})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, expected.Document+"\n")
		})

		Convey("When iterating, the order flag breaks ties", func() {
			path := writeTemp(dir, "tie.txt", tieFile)
			nesw, err := execute("iterate", path)
			So(err, ShouldBeNil)
			nswe, err := execute("iterate", "--order", "NSWE", path)
			So(err, ShouldBeNil)
			So(nesw, ShouldNotEqual, nswe)
			So(nesw, ShouldContainSubstring, "| E |")
			So(nswe, ShouldContainSubstring, "| S |")

			_, err = execute("iterate", "--order", "NNNN", path)
			So(err, ShouldNotBeNil)
		})

		Convey("When an episode is seeded, it is reproducible", func() {
			path := writeTemp(dir, "episode.txt", strings.Replace(loopingEpisodeFile, "W    E    exit", "E    E    exit", 1))
			first, err := execute("episode", "--seed", "11", path)
			So(err, ShouldBeNil)
			second, err := execute("episode", "--seed", "11", path)
			So(err, ShouldBeNil)
			So(first, ShouldEqual, second)
			So(first, ShouldStartWith, "Start state:\n")
		})

		Convey("When the env file names a config, its horizon applies", func() {
			configPath := writeTemp(dir, "solver.yaml", "kind: solver\ndef:\n  episodehorizon: 2\n")
			envPath := writeTemp(dir, "test.env", configEnv+"="+configPath+"\n")
			episodePath := writeTemp(dir, "loop.txt", loopingEpisodeFile)
			defer os.Unsetenv(configEnv)

			cmd := GetRootCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs([]string{"--env", envPath, "--no-color", "episode", episodePath})
			err := cmd.Execute()
			So(errors.Is(err, reinforcement.ErrHorizonExceeded), ShouldBeTrue)
		})

		Convey("When the config file is missing", func() {
			path := writeTemp(dir, "eval.txt", evaluationFile)
			_, err := execute("--config", filepath.Join(dir, "missing.yaml"), "evaluate", path)
			So(err, ShouldNotBeNil)
		})

		Convey("When the problem file is malformed", func() {
			path := writeTemp(dir, "bad.txt", strings.Replace(evaluationFile, "noise: 0", "noise: 0.9", 1))
			_, err := execute("evaluate", path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, path)
		})

		Convey("When plotting", func() {
			path := writeTemp(dir, "eval.txt", evaluationFile)
			heatmap := filepath.Join(dir, "values.png")
			chart := filepath.Join(dir, "residuals.html")
			_, err := execute("plot", "--kind", "evaluation", "--heatmap", heatmap, "--chart", chart, path)
			So(err, ShouldBeNil)

			for _, out := range []string{heatmap, chart} {
				info, err := os.Stat(out)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			}

			_, err = execute("plot", path)
			So(errors.Is(err, ErrNothingToPlot), ShouldBeTrue)

			_, err = execute("plot", "--kind", "episode", "--chart", chart, path)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestResolveAddr(t *testing.T) {
	Convey("When resolving the listen address", t, func() {
		Convey("The flag wins over everything", func() {
			t.Setenv(addrEnv, ":9000")
			So(resolveAddr(true, ":7000", ":8080"), ShouldEqual, ":7000")
			So(resolveAddr(false, "", ":8080"), ShouldEqual, ":9000")
		})

		Convey("The config is the fallback", func() {
			t.Setenv(addrEnv, "")
			So(resolveAddr(false, "", ":8080"), ShouldEqual, ":8080")
		})
	})
}
