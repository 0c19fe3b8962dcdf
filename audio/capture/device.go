package capture

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
)

var deviceTmpl = template.Must(template.New("").Parse(
	`{{. | len}} host APIs: {{range .}}
	Name:                   {{.Name}}
	{{if .DefaultInputDevice}}Default input device:   {{.DefaultInputDevice.Name}}{{end}}
	{{if .DefaultOutputDevice}}Default output device:  {{.DefaultOutputDevice.Name}}{{end}}
	Devices: {{range .Devices}}{{if .MaxInputChannels}}
		Name:                      {{.Name}}
		MaxInputChannels:          {{.MaxInputChannels}}
		DefaultLowInputLatency:    {{.DefaultLowInputLatency}}
		DefaultHighInputLatency:   {{.DefaultHighInputLatency}}
		DefaultSampleRate:         {{.DefaultSampleRate}}
	{{end}}{{end}}
{{end}}`,
))

// DeviceReport renders the input devices of every host API. portaudio must
// be initialized.
func DeviceReport() (string, error) {
	hs, err := portaudio.HostApis()
	if err != nil {
		return "", err
	}
	buf := bytes.NewBuffer([]byte{})
	if err := deviceTmpl.Execute(buf, hs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PrintDevices logs the device report.
func PrintDevices() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	r, err := DeviceReport()
	if err != nil {
		return err
	}
	glog.Info(r)
	fmt.Print(r)
	return nil
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device named %q", name)
}
