package botfilter_test

import (
	"testing"

	"github.com/okian/leadgate/internal/domain/botfilter"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIsLikelyBot(t *testing.T) {
	Convey("Given submitted form fields", t, func() {
		Convey("When the honeypot is filled", func() {
			So(botfilter.IsLikelyBot(map[string]string{"website": "http://spam.example"}, ""), ShouldBeTrue)
		})

		Convey("When the honeypot is blank or missing", func() {
			So(botfilter.IsLikelyBot(map[string]string{"website": ""}, "website"), ShouldBeFalse)
			So(botfilter.IsLikelyBot(map[string]string{"website": "  \t"}, "website"), ShouldBeFalse)
			So(botfilter.IsLikelyBot(map[string]string{}, "website"), ShouldBeFalse)
			So(botfilter.IsLikelyBot(nil, "website"), ShouldBeFalse)
		})

		Convey("When a custom honeypot name is configured", func() {
			fields := map[string]string{"website": "x", "fax": "123"}
			So(botfilter.IsLikelyBot(fields, "fax"), ShouldBeTrue)
			So(botfilter.IsLikelyBot(fields, "phone"), ShouldBeFalse)
		})
	})
}
