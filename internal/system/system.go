package system

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
)

// InitResourceLimits raises the open file limit; long exports keep many
// chunk files and encoder pipes open at once.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warnf("[!] Could not read the open file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warnf("[!] Could not raise the open file limit: %v", err)
	} else {
		log.Debugf("[*] Open file limit raised to %d", rLimit.Cur)
	}
}

// LookFFmpeg resolves the encoder binary from a path or a name on PATH.
func LookFFmpeg(path string) (string, error) {
	if path == "" {
		path = "ffmpeg"
	}
	found, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found at %q: %w", path, err)
	}
	return found, nil
}

// GetBestH264Encoder asks ffmpeg which hardware H.264 encoders it has.
// Priorities:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
// 3. Software (libx264)
func GetBestH264Encoder(ffmpegPath string) string {
	out, err := exec.Command(ffmpegPath, "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(out)
}

func pickEncoder(list []byte) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if bytes.Contains(list, []byte(name)) {
			return name
		}
	}
	return "libx264"
}

// DefaultWorkers leaves two logical cores to the encoder processes and
// the coordinator.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return 1
	}
	return max(1, n-2)
}

// CapWorkers lowers workers until every worker's frame buffers fit into
// the memory currently available.
func CapWorkers(workers int, bytesPerWorker uint64) int {
	if workers < 1 {
		workers = 1
	}
	vm, err := mem.VirtualMemory()
	if err != nil || bytesPerWorker == 0 {
		return workers
	}
	return capTo(workers, vm.Available, bytesPerWorker)
}

func capTo(workers int, available, bytesPerWorker uint64) int {
	fit := int(min(available/bytesPerWorker, uint64(workers)))
	if fit < workers {
		log.Warnf("[!] Workers reduced from %d to %d to fit available memory", workers, max(1, fit))
	}
	return max(1, fit)
}

// NextRunDir returns root/NNN for the lowest three-digit number not yet
// taken and creates it.
func NextRunDir(root string) (string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}
	taken := make(map[int]bool)
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != 3 {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil {
			taken[n] = true
		}
	}
	for n := 1; n < 1000; n++ {
		if taken[n] {
			continue
		}
		dir := filepath.Join(root, fmt.Sprintf("%03d", n))
		if err := os.Mkdir(dir, 0755); err != nil {
			return "", err
		}
		return dir, nil
	}
	return "", fmt.Errorf("no free run folder left in %s", root)
}
