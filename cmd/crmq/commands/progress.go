package commands

import (
	"github.com/crmforce-io/crmq-client/pkg/crmq"
	"github.com/pterm/pterm"
	"github.com/spf13/viper"
)

// spinnerProgress reports long-running job progress as a terminal spinner.
// One reporter serves one client; runners invoke Start/Done in sequence, so
// a single active spinner is enough.
type spinnerProgress struct {
	spinner *pterm.SpinnerPrinter
}

// newProgressReporter returns a spinner-backed reporter for table output and
// a no-op reporter otherwise, keeping json and yaml output machine-readable.
func newProgressReporter() crmq.ProgressReporter {
	output := viper.GetString("output")
	if output == OutputFormatJSON || output == OutputFormatYAML {
		return crmq.NoOpProgress{}
	}

	if viper.GetBool("no_color") {
		pterm.DisableColor()
	}

	return &spinnerProgress{}
}

func (p *spinnerProgress) Start(msg string) {
	spinner, err := pterm.DefaultSpinner.Start(msg)
	if err != nil {
		return
	}

	p.spinner = spinner
}

func (p *spinnerProgress) Update(msg string) {
	if p.spinner == nil {
		return
	}

	p.spinner.UpdateText(msg)
}

func (p *spinnerProgress) Done(msg string) {
	if p.spinner == nil {
		return
	}

	p.spinner.Success(msg)
	p.spinner = nil
}

func (p *spinnerProgress) Fail(msg string) {
	if p.spinner == nil {
		return
	}

	p.spinner.Fail(msg)
	p.spinner = nil
}
