// taskset-sample prints freshly sampled task configurations as canonical
// pretty JSON, one config per task, for inspection or storage.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"k8s.io/klog/v2"

	"github.com/optbench/taskset/datasets"
	"github.com/optbench/taskset/tasks"
)

var (
	flagFamily = flag.String("family", "image", "Task family to sample: image, text, bytes or words.")
	flagNum    = flag.Int("n", 1, "Number of tasks to sample.")
	flagSeed   = flag.Int64("seed", 0, "Seed for the sampler; 0 picks one from the clock.")
	flagData   = flag.String("data", "~/.cache/taskset", "Directory for downloaded datasets.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	reg := tasks.NewRegistry(datasets.NewStore(*flagData))

	for i := 0; i < *flagNum; i++ {
		var cfg any
		switch *flagFamily {
		case "image":
			cfg = reg.SampleImage(rng)
		case "text":
			cfg = reg.SampleTextClassification(rng)
		case "bytes":
			cfg = reg.SampleByteLM(rng)
		case "words":
			cfg = reg.SampleWordLM(rng)
		default:
			klog.Exitf("unknown task family %q: options are image, text, bytes, words", *flagFamily)
		}
		out, err := tasks.PrettyJSON(cfg)
		if err != nil {
			klog.Exitf("serializing sampled task: %+v", err)
		}
		fmt.Println(out)
	}
}
