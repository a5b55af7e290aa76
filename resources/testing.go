package resources

import (
	"io/ioutil"
	"testing"

	"github.com/flowguard/flowguard/config"
)

//InitTestResources creates a default testing resource bundle rooted at a
//fresh temporary directory. Log output is discarded.
func InitTestResources(t *testing.T) *Resources {
	conf, err := config.LoadTestingConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	res, err := bundle(conf)
	if err != nil {
		t.Fatal(err)
	}
	res.Log.Out = ioutil.Discard
	return res
}
