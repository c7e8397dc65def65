package indicator

import (
	"os"

	"github.com/juju/errors"
	"github.com/temoto/vfd/helpers"
	"github.com/temoto/vfd/log2"
)

// Writer sends LED names to driver led_on / led_off attributes.
// Attribute accepts one name per write. Missing attribute file is skipped, never created.
type Writer struct {
	log     *log2.Log
	onPath  string
	offPath string
}

func NewWriter(onPath, offPath string, log *log2.Log) *Writer {
	return &Writer{log: log, onPath: onPath, offPath: offPath}
}

// Ready reports both attribute files exist, i.e. driver is loaded.
func (self *Writer) Ready() bool {
	return isFile(self.onPath) && isFile(self.offPath)
}

func (self *Writer) Write(on, off []string) error {
	errs := make([]error, 0, 2)
	if len(on) != 0 {
		errs = append(errs, self.write(self.onPath, on))
	}
	if len(off) != 0 {
		errs = append(errs, self.write(self.offPath, off))
	}
	return helpers.FoldErrors(errs)
}

// TurnOff switches off every LED of set.
func (self *Writer) TurnOff(s *Set) error {
	return self.write(self.offPath, s.Names())
}

func (self *Writer) write(path string, names []string) error {
	if !isFile(path) {
		self.log.Debugf("indicator path=%s not found, skip %v", path, names)
		return nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return errors.Annotatef(err, "indicator open path=%s", path)
	}
	defer f.Close()
	for _, name := range names {
		if err := helpers.WriteAll(f, []byte(name)); err != nil {
			return errors.Annotatef(err, "indicator write path=%s name=%s", path, name)
		}
	}
	return nil
}

func isFile(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
