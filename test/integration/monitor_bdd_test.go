//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/daemon"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/infra"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/policy"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/usecase"
	"github.com/eliteGoblin/focusd/auto_unzip/test/fixtures"
)

// scriptedUser answers password prompts from a queue and confirms with a
// fixed answer.
type scriptedUser struct {
	mu        sync.Mutex
	passwords []string
	prompts   int
	confirm   bool
}

func (u *scriptedUser) PromptCredentials(_ context.Context, _, _ string) domain.Credentials {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompts++
	if len(u.passwords) == 0 {
		return domain.Credentials{Cancelled: true}
	}
	pw := u.passwords[0]
	u.passwords = u.passwords[1:]
	return domain.Credentials{Password: pw}
}

func (u *scriptedUser) Confirm(context.Context, domain.ArchiveCandidate) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.confirm
}

func (u *scriptedUser) answer(passwords ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.passwords = passwords
}

func (u *scriptedUser) promptCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.prompts
}

func writeDownload(path string) {
	Expect(os.WriteFile(path, []byte("archive bytes"), 0o644)).To(Succeed())
}

var _ = Describe("Download monitor", func() {
	var (
		tmpDir   string
		watchDir string
		fake     *fixtures.FakePeaZip
		user     *scriptedUser
		store    *infra.EncryptedStateStore
		svc      *daemon.Service
		cancel   context.CancelFunc
		done     chan error
	)

	BeforeEach(func() {
		if runtime.GOOS == "windows" {
			Skip("fake archiver is a POSIX shell script")
		}

		var err error
		tmpDir, err = os.MkdirTemp("", "autounzip-integration-*")
		Expect(err).NotTo(HaveOccurred())
		watchDir = filepath.Join(tmpDir, "Downloads")
		Expect(os.MkdirAll(watchDir, 0o755)).To(Succeed())

		fake = fixtures.NewFakePeaZip(filepath.Join(tmpDir, "peazip"))
		archiverPath, err := fake.Install()
		Expect(err).NotTo(HaveOccurred())

		store, err = infra.OpenStateStore(filepath.Join(tmpDir, "data"))
		Expect(err).NotTo(HaveOccurred())

		user = &scriptedUser{}
		logger := zap.NewNop()
		pm := infra.NewProcessManager()
		notifier := infra.NewLogNotifier(logger)
		tracker := usecase.NewAttemptTracker(3, notifier, logger)

		dispatcher := usecase.NewDispatcher(watchDir, usecase.DispatcherDeps{
			Prober: usecase.NewStabilityProber(usecase.StabilityConfig{
				Attempts: 10,
				Interval: 20 * time.Millisecond,
			}, infra.NewSharedReadOpener(), logger),
			Classifier: policy.NewDefaultClassifier(),
			Confirmer:  user,
			Extractor: usecase.NewExtractor(infra.NewArchiverRunner(archiverPath, pm, logger),
				tracker, notifier, 10*time.Second, logger),
			Tracker:    tracker,
			Prompter:   user,
			Encryption: infra.NewEncryptionProber(logger),
			Store:      store,
		}, logger)

		session := daemon.NewWatchSession(watchDir, tracker)
		watcher := daemon.NewDirectoryWatcher(daemon.WatcherConfig{
			PollTimeout:  50 * time.Millisecond,
			ErrorBackoff: 100 * time.Millisecond,
		}, session, infra.NewDirectoryEventSource, dispatcher, logger)
		controller := daemon.NewController(daemon.ControlConfig{
			HeartbeatInterval: 50 * time.Millisecond,
			PollInterval:      20 * time.Millisecond,
		}, session, store, notifier, archiverPath, "", logger)

		svc = daemon.NewService(daemon.ServiceConfig{
			DataDir:      filepath.Join(tmpDir, "data"),
			ArchiverPath: archiverPath,
			AppVersion:   "integration",
		}, session, watcher, controller, store, pm, logger)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- svc.Run(ctx) }()

		Eventually(func() (*domain.DaemonState, error) {
			return store.GetState()
		}).ShouldNot(BeNil())
	})

	AfterEach(func() {
		if cancel != nil {
			cancel()
			Eventually(done, 5*time.Second).Should(Receive(BeNil()))
		}
		if store != nil {
			store.Close()
		}
		os.RemoveAll(tmpDir)
	})

	outcomes := func() []domain.Outcome {
		records, err := store.RecentExtractions(50)
		Expect(err).NotTo(HaveOccurred())
		var out []domain.Outcome
		for _, r := range records {
			out = append(out, r.Outcome)
		}
		return out
	}

	Describe("unprotected archives", func() {
		It("should extract a zip next to the archive", func() {
			archive := filepath.Join(watchDir, "plain.zip")
			writeDownload(archive)

			Eventually(fixtures.ExtractedDir(archive), 5*time.Second).Should(BeADirectory())
			Eventually(outcomes, 5*time.Second).Should(ContainElement(domain.OutcomeSuccess))
			Expect(user.promptCount()).To(Equal(0))
		})

		It("should extract a partial download once it is renamed", func() {
			partial := filepath.Join(watchDir, "renamed.zip.part")
			writeDownload(partial)
			Expect(os.Rename(partial, filepath.Join(watchDir, "renamed.zip"))).To(Succeed())

			Eventually(filepath.Join(watchDir, "renamed"), 5*time.Second).Should(BeADirectory())
		})

		It("should ignore files that are not archives", func() {
			writeDownload(filepath.Join(watchDir, "notes.txt"))

			Consistently(func() ([]fixtures.Call, error) { return fake.Calls() }, 500*time.Millisecond).Should(BeEmpty())
		})
	})

	Describe("password protected archives", func() {
		Context("when the second password is right", func() {
			It("should extract after two prompts", func() {
				user.answer("wrong", fixtures.FakePassword)
				archive := filepath.Join(watchDir, "locked.zip")
				writeDownload(archive)

				Eventually(fixtures.ExtractedDir(archive), 5*time.Second).Should(BeADirectory())
				Expect(user.promptCount()).To(Equal(2))

				calls, err := fake.Calls()
				Expect(err).NotTo(HaveOccurred())
				Expect(calls).To(HaveLen(3))
				Expect(calls[0].Password).To(BeEmpty())
				Expect(calls[2].Password).To(Equal(fixtures.FakePassword))
			})
		})

		Context("when every password is wrong", func() {
			It("should stop prompting after three attempts", func() {
				user.answer("a", "b", "c", "d")
				writeDownload(filepath.Join(watchDir, "locked-forever.rar"))

				Eventually(outcomes, 5*time.Second).Should(ContainElement(domain.OutcomePromptDenied))
				Expect(user.promptCount()).To(Equal(3))
			})
		})
	})

	Describe("non-conventional archives", func() {
		It("should not extract without confirmation", func() {
			writeDownload(filepath.Join(watchDir, "disk.iso"))

			Eventually(outcomes, 5*time.Second).Should(ContainElement(domain.OutcomeDeclined))
			Expect(filepath.Join(watchDir, "disk")).NotTo(BeADirectory())
		})
	})

	Describe("control requests", func() {
		It("should drop downloads while paused and extract again after resume", func() {
			Expect(store.RequestPause(true)).To(Succeed())
			Eventually(func() bool {
				state, _ := store.GetState()
				return state != nil && state.Paused
			}, 2*time.Second).Should(BeTrue())

			writeDownload(filepath.Join(watchDir, "while-paused.zip"))
			Consistently(filepath.Join(watchDir, "while-paused"), 500*time.Millisecond).ShouldNot(BeADirectory())

			Expect(store.RequestPause(false)).To(Succeed())
			Eventually(func() bool {
				state, _ := store.GetState()
				return state != nil && !state.Paused
			}, 2*time.Second).Should(BeTrue())

			writeDownload(filepath.Join(watchDir, "after-resume.zip"))
			Eventually(filepath.Join(watchDir, "after-resume"), 5*time.Second).Should(BeADirectory())
		})

		It("should shut down on request and clear its state", func() {
			Expect(store.RequestShutdown()).To(Succeed())

			Eventually(done, 5*time.Second).Should(Receive(BeNil()))
			cancel = nil
			Expect(store.GetState()).To(BeNil())
		})
	})
})
