package lifecycle

import (
	"encoding/xml"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pslkit/psl-test-adapter/framework"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// JUnitSink records test outcomes and writes them as a JUnit XML report when EndLog is called.
type JUnitSink struct {
	filePath   string
	properties map[string]string
	testIDs    []string // this slice preserves the order that the tests were run in
	tests      map[string]jUnitTestStatus
	logger     framework.Logger
	lock       sync.Mutex
}

type jUnitTestStatus struct {
	state     string
	message   string
	output    string
	startTime time.Time
	duration  time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Errors     int                `xml:"errors,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName   xml.Name         `xml:"testcase"`
	Classname string           `xml:"classname,attr"`
	Name      string           `xml:"name,attr"`
	Time      string           `xml:"time,attr"`
	Failure   *jUnitXMLFailure `xml:"failure,omitempty"`
	Error     *jUnitXMLFailure `xml:"error,omitempty"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitSink creates a JUnitSink. The properties are copied into every suite of the report.
func NewJUnitSink(filePath string, properties map[string]string, logger framework.Logger) *JUnitSink {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &JUnitSink{
		filePath:   filePath,
		properties: properties,
		tests:      make(map[string]jUnitTestStatus),
		logger:     logger,
	}
}

func (j *JUnitSink) Handle(e Event) {
	if e.Kind != KindTest {
		return
	}
	j.lock.Lock()
	defer j.lock.Unlock()
	status, seen := j.tests[e.ID]
	if e.State == StateRunning {
		if !seen {
			j.testIDs = append(j.testIDs, e.ID)
		}
		j.tests[e.ID] = jUnitTestStatus{startTime: time.Now()}
		return
	}
	if !seen {
		j.testIDs = append(j.testIDs, e.ID)
		status.startTime = time.Now()
	}
	status.state = e.State
	status.message = e.Message
	status.output = e.Output.ToString("")
	status.duration = time.Since(status.startTime)
	j.tests[e.ID] = status
}

// EndLog writes the report file.
func (j *JUnitSink) EndLog() error {
	j.lock.Lock()
	defer j.lock.Unlock()

	j.logger.Printf("Writing JUnit data to %s", j.filePath)

	var properties []jUnitXMLProperty
	for _, name := range sortedKeys(j.properties) {
		properties = append(properties, jUnitXMLProperty{Name: name, Value: j.properties[name]})
	}

	var doc jUnitXMLDocument
	for _, suiteID := range getSuiteIDs(j.testIDs) {
		suite := jUnitXMLTestSuite{
			Name:       fmt.Sprintf("PSL unit tests: %s", suiteID),
			Properties: properties,
		}
		suiteTotalDuration := time.Duration(0)
		for _, testID := range j.testIDs {
			if SuiteOfTest(testID) != suiteID {
				continue
			}
			status := j.tests[testID]

			suite.Tests++
			suiteTotalDuration += status.duration

			testCase := jUnitXMLTestCase{
				Classname: suiteID,
				Name:      testID,
				Time:      jUnitDurationString(status.duration),
			}
			switch status.state {
			case StatePassed:
			case StateErrored, "":
				suite.Errors++
				testCase.Error = &jUnitXMLFailure{
					Message:  status.message,
					Type:     StateErrored,
					Contents: status.output,
				}
			default:
				suite.Failures++
				testCase.Failure = &jUnitXMLFailure{
					Message:  status.message,
					Type:     status.state,
					Contents: status.output,
				}
			}
			suite.TestCases = append(suite.TestCases, testCase)
		}
		suite.Time = jUnitDurationString(suiteTotalDuration)
		doc.Suites = append(doc.Suites, suite)
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')

	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func getSuiteIDs(allIDs []string) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, testID := range allIDs {
		suiteID := SuiteOfTest(testID)
		if !seen[suiteID] {
			ret = append(ret, suiteID)
			seen[suiteID] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
