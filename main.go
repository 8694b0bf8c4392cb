package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/stackrl/environment/envconfig"
	"github.com/samuelfneumann/stackrl/environment/manipulation/stack"
	"github.com/samuelfneumann/stackrl/experiment"
	"github.com/samuelfneumann/stackrl/experiment/trackers"
	"github.com/samuelfneumann/stackrl/utils/progressbar"
)

func main() {
	configPath := flag.String("config", "", "JSON environment config; "+
		"defaults to "+stack.StackPlayID)
	steps := flag.Int("steps", 500, "number of environment steps to run")
	render := flag.Int("render", -1, "index of an environment to render "+
		"after every step, or -1 to disable rendering")
	out := flag.String("out", "./data", "directory to save tracked data to")
	flag.Parse()

	envConf := envconfig.NewConfig(stack.StackPlayID, 0, 0, 192382, 0.99)
	if *configPath != "" {
		var err error
		envConf, err = envconfig.Load(*configPath)
		if err != nil {
			log.Fatalf("could not load environment config: %v", err)
		}
	}

	if err := os.MkdirAll(*out, 0755); err != nil {
		log.Fatalf("could not create output directory: %v", err)
	}

	agentCfg, err := stack.ResolveAgentCfg(envConf.TaskID)
	if err != nil {
		log.Fatalf("could not resolve agent config: %v", err)
	}
	log.Printf("task %v: agent %v, %v rollouts, %v timesteps", envConf.TaskID,
		agentCfg.Agent.Class, agentCfg.Agent.Rollouts,
		agentCfg.Trainer.Timesteps)

	success := trackers.NewSuccess(filepath.Join(*out, "success.bin"))
	returns := trackers.NewReturn(filepath.Join(*out, "return.bin"))
	lengths := trackers.NewEpisodeLength(filepath.Join(*out, "length.bin"))

	c := experiment.Config{MaxSteps: *steps, EnvConf: envConf}
	exp, err := c.CreateExp(stack.ScriptedPolicy{}, success, returns, lengths)
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}
	exp.RecordRewards(true)
	exp.SetProgressBar(progressbar.NewManualProgressBar(os.Stdout, 40,
		*steps))

	kinematic := exp.Environment.(*stack.Kinematic)
	if *render >= kinematic.NumEnvs() {
		log.Fatalf("cannot render environment %v of %v", *render,
			kinematic.NumEnvs())
	}

	for ended := false; !ended; {
		ended, err = exp.RunStep()
		if err != nil {
			log.Fatalf("could not run experiment: %v", err)
		}

		if *render >= 0 {
			frame := filepath.Join(*out, fmt.Sprintf("frame_%05d.png",
				exp.Steps()))
			if err := kinematic.Render(*render, frame); err != nil {
				log.Fatalf("could not render: %v", err)
			}
		}
	}
	fmt.Println()

	if err := exp.Save(); err != nil {
		log.Fatalf("could not save tracked data: %v", err)
	}

	rewards, err := exp.Rewards()
	if err != nil {
		log.Fatalf("could not stack rewards: %v", err)
	}
	raw, err := rewards.GobEncode()
	if err != nil {
		log.Fatalf("could not encode rewards: %v", err)
	}
	if err := os.WriteFile(filepath.Join(*out, "rewards.gob"), raw,
		0644); err != nil {
		log.Fatalf("could not save rewards: %v", err)
	}

	for name, mean := range kinematic.EpisodeInfo() {
		log.Printf("episode sum %v: %.4f", name, mean)
	}

	data, err := trackers.LoadData(filepath.Join(*out, "return.bin"))
	if err != nil {
		log.Fatalf("could not load returns: %v", err)
	}
	log.Printf("%v episodes, success rate %.3f, %v returns saved",
		success.Episodes(), success.Rate(), len(data))
}
