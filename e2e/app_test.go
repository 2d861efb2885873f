package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login(username, password string) {
	// Wait for login form
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	// Fill in credentials
	err = suite.page.Locator("input[name=username]").Fill(username)
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill(password)
	require.NoError(suite.T(), err, "failed to fill password")

	// Submit login
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	// Wait for redirect to records page
	err = suite.expect.Locator(suite.page.Locator(".list-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not redirect to records page after login")
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	suite.login("testuser", "testpass123")

	err := suite.expect.Locator(suite.page.Locator(".current-user")).ToHaveText("testuser")
	require.NoError(suite.T(), err, "current user not shown")

	err = suite.expect.Locator(suite.page.Locator("#record-form")).ToBeVisible()
	require.NoError(suite.T(), err, "record form not visible")

	form := suite.page.Locator("#record-form")
	require.NoError(suite.T(), form.Locator("input[name=date]").Fill("2024-03-01"), "failed to fill date")
	require.NoError(suite.T(), form.Locator("input[name=item]").Fill("Lunch Test"), "failed to fill item")
	require.NoError(suite.T(), form.Locator("input[name=amount]").Fill("-12.50"), "failed to fill amount")

	err = form.Locator("button.submit").Click()
	require.NoError(suite.T(), err, "failed to submit record")

	err = suite.expect.Locator(suite.page.Locator(".flash")).ToContainText("Record added successfully!")
	require.NoError(suite.T(), err, "missing confirmation")

	// Verify in list
	err = suite.expect.Locator(suite.page.Locator("tr.record")).ToHaveCount(1)
	require.NoError(suite.T(), err, "record count mismatch")

	row := suite.page.Locator("tr.record").First()
	err = suite.expect.Locator(row.Locator(".record-item")).ToHaveText("Lunch Test")
	require.NoError(suite.T(), err, "item mismatch")

	err = suite.expect.Locator(row.Locator(".record-amount")).ToContainText("-12.50")
	require.NoError(suite.T(), err, "amount mismatch")

	// Filter to a month without records
	filter := suite.page.Locator("#filter-form")
	_, err = filter.Locator("select[name=month]").SelectOption(playwright.SelectOptionValues{Values: &[]string{"4"}})
	require.NoError(suite.T(), err, "failed to select month")
	_, err = filter.Locator("select[name=year]").SelectOption(playwright.SelectOptionValues{Values: &[]string{"2024"}})
	require.NoError(suite.T(), err, "failed to select year")
	require.NoError(suite.T(), filter.Locator(".filter-btn").Click(), "failed to apply filter")

	err = suite.expect.Locator(suite.page.Locator("tr.record")).ToHaveCount(0)
	require.NoError(suite.T(), err, "filter should hide the March record")

	// Back to March
	_, err = filter.Locator("select[name=month]").SelectOption(playwright.SelectOptionValues{Values: &[]string{"3"}})
	require.NoError(suite.T(), err, "failed to select month")
	require.NoError(suite.T(), filter.Locator(".filter-btn").Click(), "failed to apply filter")

	err = suite.expect.Locator(suite.page.Locator("tr.record")).ToHaveCount(1)
	require.NoError(suite.T(), err, "filter should show the March record")

	// Delete
	require.NoError(suite.T(), suite.page.Locator("tr.record .record-delete").First().Click(), "failed to click delete")

	err = suite.expect.Locator(suite.page.Locator(".flash")).ToContainText("Record deleted successfully!")
	require.NoError(suite.T(), err, "missing delete confirmation")

	err = suite.expect.Locator(suite.page.Locator("tr.record")).ToHaveCount(0)
	require.NoError(suite.T(), err, "record still listed after delete")

	// Logout
	require.NoError(suite.T(), suite.page.Locator(".logout-link").Click(), "failed to click logout")

	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "not back on login page after logout")
}

func (suite *E2ETestSuite) TestRegisterAndLogin() {
	_, err := suite.page.Goto(appURL + "/register")
	require.NoError(suite.T(), err, "could not open registration page")

	form := suite.page.Locator(".register-form")
	require.NoError(suite.T(), form.Locator("input[name=username]").Fill("e2euser"))
	require.NoError(suite.T(), form.Locator("input[name=password]").Fill("e2epass"))
	require.NoError(suite.T(), form.Locator("input[name=confirm_password]").Fill("e2epass"))
	require.NoError(suite.T(), form.Locator(".register-btn").Click(), "failed to submit registration")

	err = suite.expect.Locator(suite.page.Locator(".flash")).ToContainText("Registration successful! Please log in.")
	require.NoError(suite.T(), err, "missing registration confirmation")

	suite.login("e2euser", "e2epass")

	err = suite.expect.Locator(suite.page.Locator(".current-user")).ToHaveText("e2euser")
	require.NoError(suite.T(), err, "current user not shown")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
