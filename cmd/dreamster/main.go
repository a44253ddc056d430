package main

import (
	"context"
	"flag"
	"io"
	"os"

	"fyne.io/fyne/v2/app"

	"github.com/dreamster-robot/dreamster/controller"
	"github.com/dreamster-robot/dreamster/ui"
)

func main() {
	var sessionName, probesInput string
	flag.StringVar(&sessionName, "session", "", "Session name for TWChart")
	flag.StringVar(&probesInput, "probes", "", "Set probe mapping in format \"1=Name,2=Name,...\". Default is 1=Sonar A,2=Sonar B,3=Sonar C")
	flag.Parse()

	cfg, err := controller.ConfigFromEnv()
	if err != nil {
		panic(err)
	}
	if sessionName != "" {
		cfg.SessionName = sessionName
	}
	if probesInput != "" {
		cfg.ProbesInput = probesInput
	}

	if os.Getenv("ENABLE_UI") == "true" {
		runUI(cfg)
		return
	}

	runCLI(cfg)
}

func runUI(cfg controller.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application := app.NewWithID("io.github.dreamster-robot.dreamster")
	robotUI := ui.NewRobotUI(application)

	var c *controller.Controller
	defer func() {
		if c != nil {
			c.Close()
		}
	}()

	configWindow := ui.NewConfigWindow(application)
	configWindow.OnSubmit = func(cfg controller.Config) error {
		var err error
		c, err = controller.New(cfg)
		if err != nil {
			return err
		}

		r, w := io.Pipe()

		// read from Stdin also
		go func() {
			io.Copy(w, os.Stdin)
		}()

		go func() {
			defer cancel()
			err := c.Run(ctx, r, io.MultiWriter(os.Stdout, robotUI))
			if err != nil {
				panic(err)
			}
		}()

		robotUI.Show(ctx, w)
		return nil
	}
	configWindow.Show(&cfg)

	application.Run()
}

func runCLI(cfg controller.Config) {
	c, err := controller.New(cfg)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	err = c.Run(context.Background(), os.Stdin, os.Stdout)
	if err != nil {
		panic(err)
	}
}
