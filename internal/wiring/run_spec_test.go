package wiring

import (
	"context"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/jakim54/cii-best-practices-badge/internal/cassette"
	"github.com/jakim54/cii-best-practices-badge/internal/logging"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

var _ = ginkgo.Describe("Infer", func() {
	var (
		gh *fakeGitHub
		rt *Runtime
	)

	start := func(bodies map[string]string) {
		gh = newFakeGitHub(bodies)
		ginkgo.DeferCleanup(gh.Close)
		var err error
		rt, err = Build(testConfig(gh.URL), Options{Logger: logging.Discard()})
		gomega.Expect(err).To(gomega.Succeed())
	}

	run := func(repo string) *detective.Result {
		res, err := rt.Infer(context.Background(), map[detective.Name]string{detective.NameRepoURL: repo})
		gomega.Expect(err).To(gomega.Succeed())
		return res
	}

	ginkgo.It("infers name and license from the GitHub API", func() {
		start(map[string]string{
			repoPath:              `{"description": "Best Practices Badge"}`,
			repoPath + "/license": `{"license": {"key": "mit"}}`,
		})
		res := run(repoURL)

		gomega.Expect(res.Values()).To(gomega.Equal(map[detective.Name]string{
			detective.NameName:    "Best Practices Badge",
			detective.NameLicense: "MIT",
		}))
		name, _ := res.Records.Get(detective.NameName)
		gomega.Expect(name.Confidence).To(gomega.Equal(detective.Confidence(3)))
		gomega.Expect(res.Skipped).To(gomega.BeEmpty())
	})

	ginkgo.It("omits the license when the API reports none", func() {
		start(map[string]string{
			repoPath:              `{"description": "Best Practices Badge"}`,
			repoPath + "/license": `{}`,
		})
		res := run(repoURL)

		gomega.Expect(res.Values()).To(gomega.HaveKeyWithValue(detective.NameName, "Best Practices Badge"))
		gomega.Expect(res.Values()).NotTo(gomega.HaveKey(detective.NameLicense))
	})

	ginkgo.It("issues no fetches for a non-GitHub repository", func() {
		start(nil)
		res := run("https://gitlab.com/foo/bar")

		gomega.Expect(res.Values()).To(gomega.BeEmpty())
		gomega.Expect(gh.Hits()).To(gomega.BeEmpty())
	})

	ginkgo.It("keeps the license when the repository endpoint times out", func() {
		start(map[string]string{
			repoPath:              hang,
			repoPath + "/license": `{"license": {"key": "mit"}}`,
		})
		res := run(repoURL)

		gomega.Expect(res.Partial).To(gomega.BeFalse())
		gomega.Expect(res.Values()).To(gomega.Equal(map[detective.Name]string{detective.NameLicense: "MIT"}))
	})

	ginkgo.It("replays a recorded run without the network", func() {
		start(map[string]string{
			repoPath:              `{"description": "Best Practices Badge"}`,
			repoPath + "/license": `{"license": {"key": "mit"}}`,
		})
		rec := cassette.NewRecorder(rt.Source)
		rt.Source = rec
		first := run(repoURL)

		path := filepath.Join(ginkgo.GinkgoT().TempDir(), "scenario-a.yaml")
		gomega.Expect(rec.Cassette("scenario-a").Save(path)).To(gomega.Succeed())
		loaded, err := cassette.Load(path)
		gomega.Expect(err).To(gomega.Succeed())

		gh.Close()
		rt.Source = cassette.NewPlayer(loaded)
		second := run(repoURL)

		gomega.Expect(second.Evidence()).To(gomega.Equal(first.Evidence()))
		gomega.Expect(second.RunID).NotTo(gomega.Equal(first.RunID))
	})
})
