// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/driver"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Page() config.PageConfig {
	args := m.Called()
	return args.Get(0).(config.PageConfig)
}

func (m *MockConfig) SetBrowserHeadless(b bool)      { m.Called(b) }
func (m *MockConfig) SetBrowserExecPath(path string) { m.Called(path) }
func (m *MockConfig) SetPageErrorPolicy(p string)    { m.Called(p) }
func (m *MockConfig) SetPageExplicitWaitTimeout(d time.Duration) {
	m.Called(d)
}

// -- Element Mock --

// MockElement mocks driver.Element. Name is returned by String without
// recording a call, so log statements need no expectations.
type MockElement struct {
	mock.Mock
	Name string
}

// NewMockElement returns a MockElement labelled name.
func NewMockElement(name string) *MockElement {
	return &MockElement{Name: name}
}

func (m *MockElement) String() string { return m.Name }

func (m *MockElement) Find(ctx context.Context, by driver.By) (driver.Element, error) {
	args := m.Called(ctx, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(driver.Element), args.Error(1)
}

func (m *MockElement) FindAll(ctx context.Context, by driver.By) ([]driver.Element, error) {
	args := m.Called(ctx, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]driver.Element), args.Error(1)
}

func (m *MockElement) Click(ctx context.Context) error       { return m.Called(ctx).Error(0) }
func (m *MockElement) DoubleClick(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockElement) RightClick(ctx context.Context) error  { return m.Called(ctx).Error(0) }
func (m *MockElement) Hover(ctx context.Context) error       { return m.Called(ctx).Error(0) }
func (m *MockElement) Clear(ctx context.Context) error       { return m.Called(ctx).Error(0) }
func (m *MockElement) SendKeys(ctx context.Context, keys string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockElement) IsDisplayed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsEnabled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsSelected(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// Call records the function and arguments. Tests fill res through
// .Run(func(args mock.Arguments) { ... args.Get(2) ... }).
func (m *MockElement) Call(ctx context.Context, function string, res any, args ...any) error {
	return m.Called(ctx, function, res, args).Error(0)
}

// -- Driver Mock --

// MockDriver mocks driver.Driver.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Find(ctx context.Context, by driver.By) (driver.Element, error) {
	args := m.Called(ctx, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(driver.Element), args.Error(1)
}

func (m *MockDriver) FindAll(ctx context.Context, by driver.By) ([]driver.Element, error) {
	args := m.Called(ctx, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]driver.Element), args.Error(1)
}

// Execute records the script and arguments; see MockElement.Call for filling res.
func (m *MockDriver) Execute(ctx context.Context, script string, res any, args ...any) error {
	return m.Called(ctx, script, res, args).Error(0)
}

func (m *MockDriver) CurrentWindow(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Windows(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDriver) SwitchWindow(ctx context.Context, handle string) error {
	return m.Called(ctx, handle).Error(0)
}

func (m *MockDriver) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]driver.Cookie), args.Error(1)
}

func (m *MockDriver) Cookie(ctx context.Context, name string) (*driver.Cookie, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Cookie), args.Error(1)
}

func (m *MockDriver) DeleteCookie(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}
func (m *MockDriver) DeleteAllCookies(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockDriver) AlertText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) AcceptAlert(ctx context.Context) error  { return m.Called(ctx).Error(0) }
func (m *MockDriver) DismissAlert(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockDriver) SetAlertText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}
func (m *MockDriver) Authenticate(ctx context.Context, username, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}
func (m *MockDriver) Reload(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockDriver) Close(ctx context.Context) error  { return m.Called(ctx).Error(0) }

func (m *MockDriver) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

var (
	_ config.Interface = (*MockConfig)(nil)
	_ driver.Element   = (*MockElement)(nil)
	_ driver.Driver    = (*MockDriver)(nil)
)
