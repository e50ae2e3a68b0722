package signature

// Seed signature bodies. On first use with an empty collection these are
// installed so the collection is never empty.

const collegeProfessionalHTML = `<div dir="ltr" style="margin-top:40px">
<table cellspacing="0" width="500" cellpadding="0" border="0">
  <tbody>
    <tr>
      <td>
        <table style="line-height:1.4;font-size:14.4px;color:rgb(0,0,1)">
          <tbody>
            <tr>
              <td style="padding-bottom:1px;padding-top:10px;font-weight:600;font-size:25px;color:rgb(73,31,149)">{{fullName}}</td>
            </tr>
            <tr>
              <td style="padding-bottom:7px">
                <div style="font-weight:600;font-size:12px">
                  {{title}}<br>
                  <p style="margin-top:0px;color:rgb(120,120,120);margin-bottom:5px">
                    {{subtitle}}
                  </p><br>
                  {{company}}
                </div>
              </td>
            </tr>
            <tr>
              <td style="padding:1px 0px">
                <a href="tel:{{phone}}" style="color:rgb(0,0,0)">{{phone}}</a>
              </td>
            </tr>
            <tr>
              <td style="padding-bottom:1px;padding-top:10px">
                <a href="mailto:{{email}}" style="color:rgb(0,0,0)">{{email}}</a>
              </td>
            </tr>
            <tr>
              <td style="padding:1px 0px">
                <a href="{{website}}" style="color:rgb(0,0,0)">{{website}}</a>
              </td>
            </tr>
            <tr>
              <td style="padding:1px 0px">
                <p style="padding-top:10px;color:rgb(0,0,0);margin-bottom:5px">
                  {{address}}<br>
                  {{city}}, {{state}} {{zip}}
                </p>
              </td>
            </tr>
            <tr>
              <td>
                <table style="padding-top:10px">
                  <tbody>
                    <tr>
                      <td style="padding-right:4px"><a href="{{facebook}}">Facebook</a></td>
                      <td style="padding-right:4px"><a href="{{instagram}}">Instagram</a></td>
                      <td style="padding-right:4px"><a href="{{twitter}}">Twitter</a></td>
                      <td style="padding-right:4px"><a href="{{linkedin}}">LinkedIn</a></td>
                    </tr>
                  </tbody>
                </table>
              </td>
            </tr>
          </tbody>
        </table>
      </td>
    </tr>
  </tbody>
</table>

<table style="color:gray;line-height:1.3;width:500px;margin-top:15px">
  <tbody>
    <tr>
      <td style="font-size:12px;font-style:italic;color:rgb(73,31,149);padding-bottom:10px">
        {{verseOfTheDay}}
      </td>
    </tr>
    <tr>
      <td style="font-size:12px">
        IMPORTANT: The contents of this email and any attachments are confidential. It is strictly forbidden to share any part of this message with any third party, without a written consent of the sender.
      </td>
    </tr>
  </tbody>
</table>
</div>`

const simpleProfessionalHTML = `<div style="font-family: Arial, sans-serif; font-size: 14px; color: #333; margin-top: 20px;">
  <div style="font-weight: bold; font-size: 16px; color: #2c3e50;">{{fullName}}</div>
  <div style="color: #7f8c8d; margin-top: 5px;">{{title}}</div>
  <div style="color: #7f8c8d;">{{company}}</div>
  <div style="margin-top: 10px;">
    <div><a href="tel:{{phone}}" style="color: #3498db; text-decoration: none;">{{phone}}</a></div>
    <div><a href="mailto:{{email}}" style="color: #3498db; text-decoration: none;">{{email}}</a></div>
    <div><a href="{{website}}" style="color: #3498db; text-decoration: none;">{{website}}</a></div>
  </div>
</div>`

const minimalHTML = `<div style="font-family: Arial, sans-serif; font-size: 13px; color: #555; margin-top: 20px;">
  <div style="font-weight: 600;">{{fullName}}</div>
  <div style="color: #888;">{{title}}</div>
  <div style="margin-top: 8px;">
    <a href="mailto:{{email}}" style="color: #0066cc; text-decoration: none;">{{email}}</a> |
    <a href="tel:{{phone}}" style="color: #0066cc; text-decoration: none;">{{phone}}</a>
  </div>
</div>`
